package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/models"
)

// SceneRepository handles database operations for RoomScene entities
type SceneRepository struct {
	DB *gorm.DB
}

// NewSceneRepository creates a new instance of SceneRepository
func NewSceneRepository(db *gorm.DB) *SceneRepository {
	return &SceneRepository{DB: db}
}

// CreateWithComponents persists the scene together with its initial component
// set and runs the first counter recomputation, all in one transaction. A
// scene with zero components is legal and comes out already marked complete.
func (r *SceneRepository) CreateWithComponents(scene *models.RoomScene, components []models.Component) error {
	now := time.Now().Unix()
	scene.CreatedAt = now
	scene.UpdatedAt = now

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(scene).Error; err != nil {
			return fmt.Errorf("failed to create scene %q: %w", scene.Name, err)
		}

		if len(components) > 0 {
			for i := range components {
				components[i].RoomSceneID = scene.ID
				components[i].Status = models.StatusPending
				components[i].CreatedAt = now
				components[i].UpdatedAt = now
			}
			if err := tx.Create(&components).Error; err != nil {
				return fmt.Errorf("failed to create components for scene %q: %w", scene.Name, err)
			}
		}

		return recomputeSceneCounters(tx, scene.ID)
	})
	if err != nil {
		return &apperrors.PersistenceError{Err: err}
	}

	// reflect the recomputed counters on the returned value
	return r.DB.First(scene, scene.ID).Error
}

// GetByID retrieves a scene by its ID, preloading its components
func (r *SceneRepository) GetByID(id uint) (*models.RoomScene, error) {
	var scene models.RoomScene
	err := r.DB.Preload("Components", func(db *gorm.DB) *gorm.DB {
		return db.Order("components.id ASC")
	}).First(&scene, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("scene %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scene by ID %d: %w", id, err)
	}
	return &scene, nil
}

// ListAll retrieves all scenes without their components. naturalOrder sorts
// by display name the way a human expects ("Scene 2" before "Scene 10");
// otherwise scenes come back newest first.
func (r *SceneRepository) ListAll(naturalOrder bool) ([]models.RoomScene, error) {
	var scenes []models.RoomScene
	if err := r.DB.Order("created_at DESC, id DESC").Find(&scenes).Error; err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	if naturalOrder {
		sort.SliceStable(scenes, func(i, j int) bool {
			return natsort.Compare(scenes[i].Name, scenes[j].Name)
		})
	}
	return scenes, nil
}

// Delete removes a scene and all of its components
func (r *SceneRepository) Delete(id uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var scene models.RoomScene
		if err := tx.First(&scene, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("scene %d: %w", id, apperrors.ErrNotFound)
			}
			return err
		}

		if err := tx.Where("room_scene_id = ?", id).Delete(&models.Component{}).Error; err != nil {
			return fmt.Errorf("failed to delete components of scene %d: %w", id, err)
		}
		if err := tx.Delete(&models.RoomScene{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete scene %d: %w", id, err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return &apperrors.PersistenceError{Err: err}
	}
	return err
}

// RecomputeCounters rebuilds the counters for one scene in its own
// transaction. Calling it again with no intervening transitions is a no-op
// apart from updated_at.
func (r *SceneRepository) RecomputeCounters(sceneID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return recomputeSceneCounters(tx, sceneID)
	})
}

// recomputeSceneCounters recalculates total/pending/accepted/rejected for a
// scene by aggregating its component rows, and stamps the review completion
// time the first time pending reaches zero. It must run inside the same
// transaction as whatever component change triggered it so readers never see
// counters that disagree with the component rows.
//
// Aggregating instead of incrementing costs a query per transition but makes
// counter drift impossible.
func recomputeSceneCounters(tx *gorm.DB, sceneID uint) error {
	var scene models.RoomScene
	if err := tx.First(&scene, sceneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("scene %d: %w", sceneID, apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to load scene %d for counter recompute: %w", sceneID, err)
	}

	type statusCount struct {
		Status models.ComponentStatus
		N      int
	}
	var rows []statusCount
	err := tx.Model(&models.Component{}).
		Select("status, COUNT(*) AS n").
		Where("room_scene_id = ?", sceneID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate component statuses for scene %d: %w", sceneID, err)
	}

	var pending, accepted, rejected int
	for _, row := range rows {
		switch row.Status {
		case models.StatusPending:
			pending = row.N
		case models.StatusAccepted:
			accepted = row.N
		case models.StatusRejected:
			rejected = row.N
		}
	}
	total := pending + accepted + rejected

	updates := map[string]interface{}{
		"total_components":    total,
		"pending_components":  pending,
		"accepted_components": accepted,
		"rejected_components": rejected,
		"updated_at":          time.Now().Unix(),
	}

	// completion is stamped exactly once, the first time no pending work
	// remains; later re-reviews never clear or move it
	if pending == 0 && scene.ReviewCompletedAt == nil {
		updates["review_completed_at"] = time.Now().Unix()
	}

	if err := tx.Model(&models.RoomScene{}).Where("id = ?", sceneID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update counters for scene %d: %w", sceneID, err)
	}
	return nil
}
