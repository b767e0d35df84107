package engine

import "strings"

// Write-path validation shared by flag and experiment mutations. The read
// path trusts the snapshot, so everything that could poison an evaluation is
// rejected here.

func ValidateFlagKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return NewValidationError("key", "key is required")
	}
	return nil
}

func ValidateRolloutPercent(percent int) error {
	if percent < 0 || percent > 100 {
		return NewValidationError("rolloutPercent", "must be between 0 and 100")
	}
	return nil
}

// ValidateExperiment checks the invariants that must hold whenever an
// experiment is written. DRAFT experiments may be saved mid-edit with weights
// not summing to 100; every other status requires the full invariant set.
func ValidateExperiment(exp *Experiment) error {
	if strings.TrimSpace(exp.Key) == "" {
		return NewValidationError("key", "key is required")
	}
	if !exp.Status.Valid() {
		return NewValidationError("status", "unknown status")
	}
	if len(exp.Variants) < 2 {
		return NewValidationError("variants", "experiment needs at least 2 variants")
	}
	seen := make(map[string]struct{}, len(exp.Variants))
	for _, v := range exp.Variants {
		if strings.TrimSpace(v.ID) == "" {
			return NewValidationError("variants", "variant id is required")
		}
		if v.Weight < 0 || v.Weight > 100 {
			return NewValidationError("variants", "variant weight must be between 0 and 100")
		}
		if _, dup := seen[v.ID]; dup {
			return NewValidationError("variants", "duplicate variant id "+v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	if exp.Status != StatusDraft {
		if weightSum(exp.Variants) != 100 {
			return NewValidationError("variants", "variant weights must sum to 100")
		}
	}
	return nil
}
