package engine

import (
	"math"
	"testing"
)

func TestSignificance_KnownExample(t *testing.T) {
	control := VariantCounts{UsersExposed: 1000, Conversions: 100}
	treatment := VariantCounts{UsersExposed: 1000, Conversions: 130}

	res := Significance(control, treatment)
	if !res.Computable {
		t.Fatalf("expected computable result, got reason %q", res.Reason)
	}
	if math.Abs(res.ZScore-2.1027) > 0.01 {
		t.Fatalf("z-score: got %.4f, want about 2.1027", res.ZScore)
	}
	if math.Abs(res.PValue-0.0355) > 0.002 {
		t.Fatalf("p-value: got %.4f, want about 0.0355", res.PValue)
	}
	if !res.IsSignificant {
		t.Fatalf("p=%.4f should be significant at 0.05", res.PValue)
	}
	if math.Abs(res.LiftPercent-30) > 1e-9 {
		t.Fatalf("lift: got %.4f, want 30", res.LiftPercent)
	}
}

func TestSignificance_NotSignificant(t *testing.T) {
	control := VariantCounts{UsersExposed: 1000, Conversions: 100}
	treatment := VariantCounts{UsersExposed: 1000, Conversions: 105}

	res := Significance(control, treatment)
	if !res.Computable {
		t.Fatalf("expected computable result, got reason %q", res.Reason)
	}
	if res.IsSignificant {
		t.Fatalf("a 5%% relative bump on n=1000 should not be significant (p=%.4f)", res.PValue)
	}
}

func TestSignificance_ZeroExposure(t *testing.T) {
	res := Significance(VariantCounts{}, VariantCounts{UsersExposed: 100, Conversions: 10})
	if res.Computable {
		t.Fatalf("zero control exposure should not be computable")
	}
	if res.Reason == "" {
		t.Fatalf("expected a reason for the incomputable result")
	}

	res = Significance(VariantCounts{UsersExposed: 100, Conversions: 10}, VariantCounts{})
	if res.Computable {
		t.Fatalf("zero treatment exposure should not be computable")
	}
}

func TestSignificance_ZeroVariance(t *testing.T) {
	// No conversions anywhere: pooled rate 0, SE 0.
	res := Significance(
		VariantCounts{UsersExposed: 100, Conversions: 0},
		VariantCounts{UsersExposed: 100, Conversions: 0},
	)
	if res.Computable {
		t.Fatalf("zero variance should not be computable")
	}

	// Everyone converted everywhere: pooled rate 1, SE 0.
	res = Significance(
		VariantCounts{UsersExposed: 100, Conversions: 100},
		VariantCounts{UsersExposed: 100, Conversions: 100},
	)
	if res.Computable {
		t.Fatalf("total conversion should not be computable")
	}
}

func TestSignificance_DirectionOfZ(t *testing.T) {
	worse := Significance(
		VariantCounts{UsersExposed: 1000, Conversions: 130},
		VariantCounts{UsersExposed: 1000, Conversions: 100},
	)
	if !worse.Computable {
		t.Fatalf("expected computable result")
	}
	if worse.ZScore >= 0 {
		t.Fatalf("treatment below control should give negative z, got %.4f", worse.ZScore)
	}
	if worse.LiftPercent >= 0 {
		t.Fatalf("treatment below control should give negative lift, got %.4f", worse.LiftPercent)
	}
}
