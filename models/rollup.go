package models

import "gorm.io/datatypes"

// RollupScopeGlobal is the scene id used for the rollup covering all scenes.
const RollupScopeGlobal uint = 0

// StatsRollup is one immutable, versioned statistics snapshot derived from
// the component rows. It corresponds to the 'stats_rollups' table.
//
// Rollups are regenerated wholesale by the statistics engine and are allowed
// to be stale between refreshes; they are never authoritative for the
// per-scene counters on RoomScene.
type StatsRollup struct {
	ID          uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	SceneID     uint  `gorm:"not null;index" json:"scene_id"` // RollupScopeGlobal for the all-scenes rollup
	RefreshedAt int64 `gorm:"not null;index" json:"refreshed_at"`

	TotalComponents  int      `gorm:"not null" json:"total_components"`
	AvgConfidence    *float64 `gorm:"" json:"avg_confidence,omitempty"`
	MedianConfidence *float64 `gorm:"" json:"median_confidence,omitempty"`
	AcceptanceRate   float64  `gorm:"not null" json:"acceptance_rate"` // accepted/total, 0 when total is 0

	FirstDetectedAt *int64 `gorm:"" json:"first_detected_at,omitempty"` // Unix timestamp
	LastDetectedAt  *int64 `gorm:"" json:"last_detected_at,omitempty"`  // Unix timestamp

	AvgReviewSeconds *float64 `gorm:"" json:"avg_review_seconds,omitempty"` // over reviewed components only

	TypeDistribution    datatypes.JSONMap `gorm:"" json:"type_distribution,omitempty"`
	StatusDistribution  datatypes.JSONMap `gorm:"" json:"status_distribution,omitempty"`
	ConfidenceHistogram datatypes.JSONMap `gorm:"" json:"confidence_histogram,omitempty"` // "40-50" -> count
	RejectionReasons    datatypes.JSONMap `gorm:"" json:"rejection_reasons,omitempty"`    // note text -> count
}

// TableName explicitly sets the table name for GORM.
func (StatsRollup) TableName() string {
	return "stats_rollups"
}
