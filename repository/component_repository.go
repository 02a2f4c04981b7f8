package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/models"
)

// ComponentRepository handles database operations for Component entities
type ComponentRepository struct {
	DB *gorm.DB
}

// NewComponentRepository creates a new instance of ComponentRepository
func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{DB: db}
}

// GetByID retrieves a component by its ID
func (r *ComponentRepository) GetByID(id uint) (*models.Component, error) {
	var comp models.Component
	err := r.DB.First(&comp, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("component %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get component by ID %d: %w", id, err)
	}
	return &comp, nil
}

// ListBySceneID retrieves all components for a given scene
func (r *ComponentRepository) ListBySceneID(sceneID uint) ([]models.Component, error) {
	var comps []models.Component
	err := r.DB.Where("room_scene_id = ?", sceneID).Order("id ASC").Find(&comps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list components for scene %d: %w", sceneID, err)
	}
	return comps, nil
}

// Transition applies a review-status change to one component and recomputes
// the owning scene's counters in the same transaction, so the two are never
// observably inconsistent.
//
// Concurrent transitions against the same component serialize on the write
// transaction; the guarded UPDATE (WHERE status = <status read in this
// transaction>) turns any interleaving the driver might still allow into an
// explicit conflict instead of a lost update. The review timestamp is set on
// the first transition out of pending and overwritten on re-review, as are
// the notes.
func (r *ComponentRepository) Transition(componentID uint, newStatus models.ComponentStatus, notes *string) (*models.Component, error) {
	if !newStatus.Valid() {
		return nil, apperrors.Validationf("unknown status %q", newStatus)
	}

	var result models.Component
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var comp models.Component
		if err := tx.First(&comp, componentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("component %d: %w", componentID, apperrors.ErrNotFound)
			}
			return &apperrors.PersistenceError{Err: err}
		}

		if !comp.Status.CanTransitionTo(newStatus) {
			return &apperrors.InvalidTransitionError{From: string(comp.Status), To: string(newStatus)}
		}

		now := time.Now().Unix()
		updates := map[string]interface{}{
			"status":         newStatus,
			"reviewed_at":    now,
			"reviewer_notes": notes,
			"updated_at":     now,
		}

		res := tx.Model(&models.Component{}).
			Where("id = ? AND status = ?", componentID, comp.Status).
			Updates(updates)
		if res.Error != nil {
			return &apperrors.PersistenceError{Err: fmt.Errorf("failed to transition component %d: %w", componentID, res.Error)}
		}
		if res.RowsAffected == 0 {
			return &apperrors.PersistenceError{Err: fmt.Errorf("component %d was modified concurrently", componentID)}
		}

		if err := recomputeSceneCounters(tx, comp.RoomSceneID); err != nil {
			return err
		}

		comp.Status = newStatus
		comp.ReviewedAt = &now
		comp.ReviewerNotes = notes
		comp.UpdatedAt = now
		result = comp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateDetails renames or retypes a component. Pass nil to leave a field
// unchanged. Review state and geometry are not touched here.
func (r *ComponentRepository) UpdateDetails(componentID uint, name, componentType *string) (*models.Component, error) {
	updates := make(map[string]interface{})
	if name != nil {
		updates["name"] = *name
	}
	if componentType != nil {
		updates["component_type"] = *componentType
	}
	if len(updates) == 0 {
		return r.GetByID(componentID)
	}
	updates["updated_at"] = time.Now().Unix()

	res := r.DB.Model(&models.Component{}).Where("id = ?", componentID).Updates(updates)
	if res.Error != nil {
		return nil, &apperrors.PersistenceError{Err: fmt.Errorf("failed to update component %d: %w", componentID, res.Error)}
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("component %d: %w", componentID, apperrors.ErrNotFound)
	}
	return r.GetByID(componentID)
}
