package engine

import (
	"errors"
	"fmt"
	"testing"
)

func runningExperiment(key string, weights ...int) *Experiment {
	exp := &Experiment{Key: key, Status: StatusRunning}
	for i, w := range weights {
		exp.Variants = append(exp.Variants, Variant{
			ID:     fmt.Sprintf("v%d", i),
			Name:   fmt.Sprintf("variant %d", i),
			Weight: w,
		})
	}
	return exp
}

func TestAssign_Deterministic(t *testing.T) {
	exp := runningExperiment("checkout-test", 50, 50)
	for i := 0; i < 200; i++ {
		subject := fmt.Sprintf("user-%d", i)
		a, err := Assign(exp, subject)
		if err != nil {
			t.Fatalf("assign failed: %v", err)
		}
		b, err := Assign(exp, subject)
		if err != nil {
			t.Fatalf("assign failed: %v", err)
		}
		if a != b {
			t.Fatalf("assignment not deterministic for %q: %s vs %s", subject, a, b)
		}
	}
}

func TestAssign_RespectsWeights(t *testing.T) {
	exp := runningExperiment("split-test", 30, 70)
	const n = 10000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		id, err := Assign(exp, fmt.Sprintf("user-%d", i))
		if err != nil {
			t.Fatalf("assign failed: %v", err)
		}
		counts[id]++
	}
	p0 := float64(counts["v0"]) / n * 100
	p1 := float64(counts["v1"]) / n * 100
	if p0 < 25 || p0 > 35 {
		t.Fatalf("variant v0 got %.1f%%, want about 30%%", p0)
	}
	if p1 < 65 || p1 > 75 {
		t.Fatalf("variant v1 got %.1f%%, want about 70%%", p1)
	}
}

func TestAssign_NonRunningRejected(t *testing.T) {
	for _, status := range []Status{StatusDraft, StatusPaused, StatusCompleted} {
		exp := runningExperiment("lifecycle-test", 50, 50)
		exp.Status = status
		_, err := Assign(exp, "user-1")
		if err == nil {
			t.Fatalf("expected error for status %s", status)
		}
		if !errors.Is(err, ErrState) {
			t.Fatalf("expected state error for status %s, got %v", status, err)
		}
	}
}

func TestAssign_IndependentOfFlagBucketing(t *testing.T) {
	// An experiment and a flag sharing a key must bucket independently.
	exp := runningExperiment("shared-key", 50, 50)
	differs := false
	for i := 0; i < 200; i++ {
		subject := fmt.Sprintf("user-%d", i)
		flagBucket := Bucket(FlagNamespace("shared-key"), subject)
		expBucket := Bucket(ExperimentNamespace("shared-key"), subject)
		if flagBucket != expBucket {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatalf("flag and experiment namespaces produced identical buckets")
	}
	if _, err := Assign(exp, "user-0"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
}
