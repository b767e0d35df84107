package engine

// EvaluatorPolicy controls the one precedence question the product never
// settled: whether an explicitly targeted user sees a flag that has been
// switched off entirely.
type EvaluatorPolicy struct {
	// TargetingOverridesDisabled makes an explicit user target win even when
	// enabled=false. Default false: a kill switch kills for everyone.
	TargetingOverridesDisabled bool
}

type Evaluator struct {
	policy EvaluatorPolicy
}

func NewEvaluator(policy EvaluatorPolicy) *Evaluator {
	return &Evaluator{policy: policy}
}

// IsEnabled is pure: no side effects, no allocation beyond map lookups.
// Evaluation order, first match wins:
//  1. explicit user target (subject to policy when the flag is disabled)
//  2. flag disabled
//  3. role gate
//  4. rollout bucket
// The snapshot is validated at write time, so RolloutPercent is trusted here.
func (ev *Evaluator) IsEnabled(flag *Flag, subject Subject) bool {
	if flag == nil {
		return false
	}
	if _, targeted := flag.TargetUserIDs[subject.ID]; targeted {
		if flag.Enabled || ev.policy.TargetingOverridesDisabled {
			return true
		}
	}
	if !flag.Enabled {
		return false
	}
	if len(flag.TargetRoles) > 0 {
		if _, ok := flag.TargetRoles[subject.Role]; !ok {
			return false
		}
	}
	return Bucket(FlagNamespace(flag.Key), subject.ID) < flag.RolloutPercent
}
