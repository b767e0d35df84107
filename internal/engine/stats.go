package engine

import "math"

// SignificanceThreshold matches the admin UI's "95% confidence" label.
const SignificanceThreshold = 0.05

// SignificanceResult is always a structured value, never a panic or NaN leak:
// when the inputs cannot support the test, Computable is false and Reason says
// why, so the UI can render "continue running" instead of numbers.
type SignificanceResult struct {
	Computable    bool    `json:"computable"`
	Reason        string  `json:"reason,omitempty"`
	ZScore        float64 `json:"zScore"`
	PValue        float64 `json:"pValue"`
	LiftPercent   float64 `json:"liftPercentage"`
	IsSignificant bool    `json:"isSignificant"`
}

// Significance runs a fixed-horizon, two-tailed, two-proportion z-test with a
// pooled standard error:
//
//	p  = (c1 + c2) / (n1 + n2)
//	SE = sqrt(p (1-p) (1/n1 + 1/n2))
//	z  = (p2 - p1) / SE
//	pValue = 2 (1 - Phi(|z|)) = erfc(|z| / sqrt(2))
func Significance(control, treatment VariantCounts) SignificanceResult {
	if control.UsersExposed == 0 || treatment.UsersExposed == 0 {
		return SignificanceResult{Computable: false, Reason: "insufficient data"}
	}
	n1 := float64(control.UsersExposed)
	n2 := float64(treatment.UsersExposed)
	p1 := float64(control.Conversions) / n1
	p2 := float64(treatment.Conversions) / n2

	pooled := float64(control.Conversions+treatment.Conversions) / (n1 + n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/n1 + 1/n2))
	if se == 0 {
		// Every subject converted, or none did, in both groups.
		return SignificanceResult{Computable: false, Reason: "zero variance"}
	}

	z := (p2 - p1) / se
	pValue := math.Erfc(math.Abs(z) / math.Sqrt2)

	lift := 0.0
	if p1 > 0 {
		lift = (p2 - p1) / p1 * 100
	}

	return SignificanceResult{
		Computable:    true,
		ZScore:        z,
		PValue:        pValue,
		LiftPercent:   lift,
		IsSignificant: pValue < SignificanceThreshold,
	}
}
