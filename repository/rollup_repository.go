package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/models"
)

// RollupRepository handles storage of versioned statistics snapshots
type RollupRepository struct {
	DB *gorm.DB
}

// NewRollupRepository creates a new instance of RollupRepository
func NewRollupRepository(db *gorm.DB) *RollupRepository {
	return &RollupRepository{DB: db}
}

// Insert stores a freshly computed snapshot. Snapshots are append-only;
// older versions stay around as history.
func (r *RollupRepository) Insert(rollup *models.StatsRollup) error {
	if err := r.DB.Create(rollup).Error; err != nil {
		return &apperrors.PersistenceError{Err: fmt.Errorf("failed to insert stats rollup: %w", err)}
	}
	return nil
}

// Latest returns the most recent snapshot for the given scope
// (models.RollupScopeGlobal for the all-scenes rollup).
func (r *RollupRepository) Latest(sceneID uint) (*models.StatsRollup, error) {
	var rollup models.StatsRollup
	err := r.DB.Where("scene_id = ?", sceneID).
		Order("refreshed_at DESC, id DESC").
		First(&rollup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rollup for scope %d: %w", sceneID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load latest rollup for scope %d: %w", sceneID, err)
	}
	return &rollup, nil
}
