package repository

import (
	"github.com/camden-git/scenereviewbackend/models"
)

// SceneRepositoryInterface defines the methods for room scene data operations
type SceneRepositoryInterface interface {
	// CreateWithComponents persists the scene and its initial component set
	// in one transaction and initializes the scene counters. Either all rows
	// exist afterwards or none do.
	CreateWithComponents(scene *models.RoomScene, components []models.Component) error
	GetByID(id uint) (*models.RoomScene, error)
	ListAll(naturalOrder bool) ([]models.RoomScene, error)
	Delete(id uint) error
	// RecomputeCounters rebuilds the scene's cached counters from its
	// component rows in a transaction of its own.
	RecomputeCounters(sceneID uint) error
}

// ComponentRepositoryInterface defines the methods for component data operations
type ComponentRepositoryInterface interface {
	GetByID(id uint) (*models.Component, error)
	ListBySceneID(sceneID uint) ([]models.Component, error)
	// Transition applies a review-status change and recomputes the owning
	// scene's counters inside the same transaction. Illegal edges fail with
	// an InvalidTransitionError and leave the row untouched.
	Transition(componentID uint, newStatus models.ComponentStatus, notes *string) (*models.Component, error)
	// UpdateDetails renames or retypes a component without touching its
	// review state.
	UpdateDetails(componentID uint, name, componentType *string) (*models.Component, error)
}

// RollupRepositoryInterface defines the methods for statistics snapshot storage
type RollupRepositoryInterface interface {
	Insert(rollup *models.StatsRollup) error
	Latest(sceneID uint) (*models.StatsRollup, error)
}
