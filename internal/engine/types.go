package engine

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusRunning, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Flag is the evaluation-ready view of a feature flag. Target sets are
// materialized as maps when the snapshot is built so the hot path never
// scans slices or decodes anything.
type Flag struct {
	Key            string
	Enabled        bool
	RolloutPercent int
	TargetRoles    map[string]struct{}
	TargetUserIDs  map[string]struct{}
}

type Variant struct {
	ID     string
	Name   string
	Weight int
}

// Experiment carries variants in their stable insertion order; the cumulative
// weight table in assign.go depends on that order never changing.
type Experiment struct {
	Key              string
	Status           Status
	Variants         []Variant
	WinningVariantID string
}

// Subject is who a flag or experiment is evaluated for.
type Subject struct {
	ID   string
	Role string
}
