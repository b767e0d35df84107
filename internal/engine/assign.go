package engine

// Assign picks the variant for a subject. Defined only for RUNNING
// experiments; calling it for any other status is a caller error and comes
// back as a StateError rather than a silent assignment.
//
// The cumulative-weight walk over variants in insertion order plus a bucket
// in [0,100) makes assignment total (weights sum to 100 at start time) and
// deterministic: the same subject gets the same variant for the life of the
// experiment, which is what keeps exposure and conversion counts for one
// subject on the same side of the split.
func Assign(exp *Experiment, subjectID string) (string, error) {
	if exp == nil {
		return "", &NotFoundError{Kind: "experiment", Key: ""}
	}
	if exp.Status != StatusRunning {
		return "", &StateError{From: exp.Status, Op: "assign subjects to"}
	}
	b := Bucket(ExperimentNamespace(exp.Key), subjectID)
	cumulative := 0
	for _, v := range exp.Variants {
		cumulative += v.Weight
		if b < cumulative {
			return v.ID, nil
		}
	}
	// Unreachable when the start-time invariant (weights sum to 100) holds;
	// fall back to the last variant rather than dropping the subject.
	if n := len(exp.Variants); n > 0 {
		return exp.Variants[n-1].ID, nil
	}
	return "", NewValidationError("variants", "experiment has no variants")
}
