package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/beaconhq/beacon-backend/internal/engine"
)

type Experiment struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Key              string        `gorm:"uniqueIndex;size:128;not null;column:key" json:"key"`
	Name             string        `gorm:"not null;column:name" json:"name"`
	Description      string        `gorm:"column:description" json:"description"`
	Status           engine.Status `gorm:"size:16;not null;default:'DRAFT';column:status" json:"status"`
	WinningVariantID string        `gorm:"column:winning_variant_id" json:"winningVariantId,omitempty"`
	Variants         []Variant     `gorm:"foreignKey:ExperimentID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt        time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null" json:"updated_at"`
}

func (Experiment) TableName() string { return "experiment" }

// Variant rows carry a position column so the cumulative-weight order in the
// engine survives round-trips through the database.
type Variant struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ExperimentID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	VariantID    string    `gorm:"size:128;not null;column:variant_id" json:"variantId"`
	Name         string    `gorm:"not null;column:name" json:"name"`
	Weight       int       `gorm:"not null;default:0;column:weight" json:"weight"`
	Position     int       `gorm:"not null;default:0;column:position" json:"-"`
}

func (Variant) TableName() string { return "experiment_variant" }

func (e *Experiment) Engine() *engine.Experiment {
	out := &engine.Experiment{
		Key:              e.Key,
		Status:           e.Status,
		WinningVariantID: e.WinningVariantID,
		Variants:         make([]engine.Variant, 0, len(e.Variants)),
	}
	for _, v := range e.Variants {
		out.Variants = append(out.Variants, engine.Variant{
			ID:     v.VariantID,
			Name:   v.Name,
			Weight: v.Weight,
		})
	}
	return out
}

func (e *Experiment) VariantName(variantID string) string {
	for _, v := range e.Variants {
		if v.VariantID == variantID {
			return v.Name
		}
	}
	return ""
}
