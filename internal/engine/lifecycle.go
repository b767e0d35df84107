package engine

// Lifecycle transitions:
//
//	DRAFT → RUNNING ↔ PAUSED → COMPLETED
//
// COMPLETED is terminal; a finished experiment is never restarted, a new one
// is created instead. Transitions mutate only Status and the optional winner;
// accumulated counters are untouched.

// Start moves a DRAFT or PAUSED experiment to RUNNING. The weight-sum and
// variant-count invariants are enforced here, not just at write time, so a
// DRAFT saved mid-edit cannot begin serving traffic.
func Start(exp *Experiment) error {
	switch exp.Status {
	case StatusDraft, StatusPaused:
	default:
		return &StateError{From: exp.Status, Op: "start"}
	}
	if len(exp.Variants) < 2 {
		return NewValidationError("variants", "experiment needs at least 2 variants")
	}
	if sum := weightSum(exp.Variants); sum != 100 {
		return NewValidationError("variants", "variant weights must sum to 100")
	}
	exp.Status = StatusRunning
	return nil
}

func Pause(exp *Experiment) error {
	if exp.Status != StatusRunning {
		return &StateError{From: exp.Status, Op: "pause"}
	}
	exp.Status = StatusPaused
	return nil
}

// Complete ends a RUNNING or PAUSED experiment. winningVariantID may be empty
// (abandoned without a winner); when given it must reference a variant of
// this experiment.
func Complete(exp *Experiment, winningVariantID string) error {
	switch exp.Status {
	case StatusRunning, StatusPaused:
	default:
		return &StateError{From: exp.Status, Op: "complete"}
	}
	if winningVariantID != "" && !hasVariant(exp.Variants, winningVariantID) {
		return NewValidationError("winningVariantId", "unknown variant id")
	}
	exp.Status = StatusCompleted
	exp.WinningVariantID = winningVariantID
	return nil
}

func weightSum(variants []Variant) int {
	sum := 0
	for _, v := range variants {
		sum += v.Weight
	}
	return sum
}

func hasVariant(variants []Variant, id string) bool {
	for _, v := range variants {
		if v.ID == id {
			return true
		}
	}
	return false
}
