package types

import (
	"time"

	"github.com/google/uuid"
)

// ExperimentEvent is the append-only audit row behind the in-memory counters.
// The unique index on (experiment_key, subject_id, kind) is what makes
// first-exposure / first-conversion semantics hold across restarts and
// replicas: duplicate appends conflict instead of double counting.
type ExperimentEvent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExperimentKey string    `gorm:"size:128;not null;uniqueIndex:idx_experiment_event_dedup,priority:1" json:"experimentKey"`
	SubjectID     string    `gorm:"size:256;not null;uniqueIndex:idx_experiment_event_dedup,priority:2" json:"subjectId"`
	Kind          string    `gorm:"size:16;not null;uniqueIndex:idx_experiment_event_dedup,priority:3" json:"kind"`
	VariantID     string    `gorm:"size:128;not null;index" json:"variantId"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (ExperimentEvent) TableName() string { return "experiment_event" }
