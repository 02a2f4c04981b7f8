package models

import "gorm.io/datatypes"

// RoomScene represents one uploaded room image and its detection/review
// session using GORM. It corresponds to the 'room_scenes' table.
//
// The four counter columns are a cache over the scene's components and are
// only ever written by the counter recomputation that runs inside the same
// transaction as a component status change, so readers never observe
// counters that disagree with the component rows.
type RoomScene struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Category string `gorm:"not null;index" json:"category"` // e.g., living_room, bedroom
	FilePath string `gorm:"not null" json:"file_path"`      // stored scene image, relative to media storage

	SceneMetadata datatypes.JSONMap `gorm:"" json:"scene_metadata,omitempty"` // schema-less (dimensions, EXIF)

	CreatedAt         int64  `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt         int64  `gorm:"not null" json:"updated_at"` // Unix timestamp
	ReviewCompletedAt *int64 `gorm:"" json:"review_completed_at,omitempty"`

	TotalComponents    int `gorm:"not null;default:0" json:"total_components"`
	PendingComponents  int `gorm:"not null;default:0" json:"pending_components"`
	AcceptedComponents int `gorm:"not null;default:0" json:"accepted_components"`
	RejectedComponents int `gorm:"not null;default:0" json:"rejected_components"`

	Components []Component `gorm:"foreignKey:RoomSceneID;constraint:OnDelete:CASCADE" json:"components,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (RoomScene) TableName() string {
	return "room_scenes"
}

// ReviewProgress returns the percentage of components already reviewed.
func (s *RoomScene) ReviewProgress() float64 {
	if s.TotalComponents == 0 {
		return 0
	}
	reviewed := s.AcceptedComponents + s.RejectedComponents
	return float64(reviewed) / float64(s.TotalComponents) * 100
}
