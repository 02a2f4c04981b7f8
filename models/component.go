package models

import "gorm.io/datatypes"

// Component represents one detected candidate region within a scene using
// GORM. It corresponds to the 'components' table.
//
// RoomSceneID is set at creation and never reassigned. ReviewedAt is set on
// the first transition out of pending and overwritten (together with
// ReviewerNotes) on re-review.
type Component struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomSceneID uint `gorm:"not null;index" json:"room_scene_id"`

	Name          string `gorm:"not null" json:"name"`
	ComponentType string `gorm:"not null;index" json:"component_type"` // e.g., furniture, auto_detected

	PositionData datatypes.JSONMap `gorm:"" json:"position_data,omitempty"` // bounds/center/size or raw mask data
	FilePath     string            `gorm:"not null" json:"file_path"`       // rendered crop, relative to media storage

	Status          ComponentStatus `gorm:"type:text;not null;default:pending;index" json:"status"`
	ConfidenceScore *float64        `gorm:"" json:"confidence_score,omitempty"` // 0-100, nil when the engine abstains
	ReviewedAt      *int64          `gorm:"" json:"reviewed_at,omitempty"`      // Unix timestamp
	ReviewerNotes   *string         `gorm:"" json:"reviewer_notes,omitempty"`

	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt int64 `gorm:"not null" json:"updated_at"` // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Component) TableName() string {
	return "components"
}
