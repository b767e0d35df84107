package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/beaconhq/beacon-backend/internal/engine"
)

type FeatureFlag struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Key            string         `gorm:"uniqueIndex;size:128;not null;column:key" json:"key"`
	Name           string         `gorm:"not null;column:name" json:"name"`
	Description    string         `gorm:"column:description" json:"description"`
	Enabled        bool           `gorm:"not null;default:false;column:enabled" json:"enabled"`
	RolloutPercent int            `gorm:"not null;default:0;column:rollout_percent" json:"rolloutPercent"`
	TargetRoles    datatypes.JSON `gorm:"column:target_roles;type:jsonb" json:"targetRoles"`
	TargetUserIDs  datatypes.JSON `gorm:"column:target_user_ids;type:jsonb" json:"targetUserIds"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (FeatureFlag) TableName() string { return "feature_flag" }

func (f *FeatureFlag) SetTargetRoles(roles []string) error {
	raw, err := json.Marshal(roles)
	if err != nil {
		return err
	}
	f.TargetRoles = datatypes.JSON(raw)
	return nil
}

func (f *FeatureFlag) SetTargetUserIDs(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	f.TargetUserIDs = datatypes.JSON(raw)
	return nil
}

func (f *FeatureFlag) TargetRoleList() []string   { return decodeStringList(f.TargetRoles) }
func (f *FeatureFlag) TargetUserIDList() []string { return decodeStringList(f.TargetUserIDs) }

// Engine converts the row into the evaluation-ready view used by snapshots.
func (f *FeatureFlag) Engine() *engine.Flag {
	return &engine.Flag{
		Key:            f.Key,
		Enabled:        f.Enabled,
		RolloutPercent: f.RolloutPercent,
		TargetRoles:    toSet(f.TargetRoleList()),
		TargetUserIDs:  toSet(f.TargetUserIDList()),
	}
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
