package engine

import (
	"errors"
	"testing"
)

func draftExperiment(weights ...int) *Experiment {
	exp := runningExperiment("lifecycle", weights...)
	exp.Status = StatusDraft
	return exp
}

func TestStart_RejectsBadWeights(t *testing.T) {
	exp := draftExperiment(50, 40)
	if err := Start(exp); err == nil {
		t.Fatalf("expected weights summing to 90 to be rejected")
	} else if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if exp.Status != StatusDraft {
		t.Fatalf("failed start mutated status to %s", exp.Status)
	}
}

func TestStart_RejectsSingleVariant(t *testing.T) {
	exp := draftExperiment(100)
	if err := Start(exp); err == nil {
		t.Fatalf("expected single-variant experiment to be rejected")
	}
}

func TestLifecycle_FullWalk(t *testing.T) {
	exp := draftExperiment(50, 50)

	if err := Start(exp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if exp.Status != StatusRunning {
		t.Fatalf("expected RUNNING, got %s", exp.Status)
	}

	if err := Pause(exp); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if exp.Status != StatusPaused {
		t.Fatalf("expected PAUSED, got %s", exp.Status)
	}

	if err := Start(exp); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if exp.Status != StatusRunning {
		t.Fatalf("expected RUNNING after resume, got %s", exp.Status)
	}

	if err := Complete(exp, "v1"); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if exp.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", exp.Status)
	}
	if exp.WinningVariantID != "v1" {
		t.Fatalf("winner not recorded: %q", exp.WinningVariantID)
	}
}

func TestLifecycle_CompletedIsTerminal(t *testing.T) {
	exp := draftExperiment(50, 50)
	if err := Start(exp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := Complete(exp, ""); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if err := Start(exp); !errors.Is(err, ErrState) {
		t.Fatalf("expected state error on restart, got %v", err)
	}
	if err := Pause(exp); !errors.Is(err, ErrState) {
		t.Fatalf("expected state error on pause, got %v", err)
	}
	if err := Complete(exp, "v0"); !errors.Is(err, ErrState) {
		t.Fatalf("expected state error on re-complete, got %v", err)
	}
}

func TestPause_OnlyFromRunning(t *testing.T) {
	exp := draftExperiment(50, 50)
	if err := Pause(exp); !errors.Is(err, ErrState) {
		t.Fatalf("expected state error pausing a draft, got %v", err)
	}
}

func TestComplete_UnknownWinnerRejected(t *testing.T) {
	exp := draftExperiment(50, 50)
	if err := Start(exp); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := Complete(exp, "nope"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown winner, got %v", err)
	}
	if exp.Status != StatusRunning {
		t.Fatalf("failed complete mutated status to %s", exp.Status)
	}
}
