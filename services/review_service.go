package services

import (
	"log"
	"strings"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/media"
	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/repository"
)

// ReviewService is the action surface consumed by the admin UI: accept or
// reject individual components, fetch scenes with their components, and
// delete scenes wholesale.
type ReviewService struct {
	SceneRepo     repository.SceneRepositoryInterface
	ComponentRepo repository.ComponentRepositoryInterface
	Processor     *media.Processor
}

func NewReviewService(sceneRepo repository.SceneRepositoryInterface, componentRepo repository.ComponentRepositoryInterface, processor *media.Processor) *ReviewService {
	return &ReviewService{SceneRepo: sceneRepo, ComponentRepo: componentRepo, Processor: processor}
}

// Accept marks a component accepted. When the component carries one of the
// enumerated types, it must be compatible with its scene's room category;
// freshly detected (auto_detected or otherwise free-text) components are not
// held to the compatibility table.
func (s *ReviewService) Accept(componentID uint, notes *string) (*models.Component, error) {
	comp, err := s.ComponentRepo.GetByID(componentID)
	if err != nil {
		return nil, err
	}

	if IsKnownComponentType(comp.ComponentType) {
		scene, err := s.SceneRepo.GetByID(comp.RoomSceneID)
		if err != nil {
			return nil, err
		}
		if ok, message := ValidateComponentCategory(scene.Category, comp.ComponentType); !ok {
			return nil, apperrors.Validationf("%s", message)
		}
	}

	return s.ComponentRepo.Transition(componentID, models.StatusAccepted, notes)
}

// Reject marks a component rejected. Rejections require notes so the
// decision is auditable and feeds the rejection-reason statistics.
func (s *ReviewService) Reject(componentID uint, notes *string) (*models.Component, error) {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil, apperrors.Validationf("rejection notes are required")
	}
	return s.ComponentRepo.Transition(componentID, models.StatusRejected, notes)
}

// GetScene returns a scene with its components preloaded.
func (s *ReviewService) GetScene(sceneID uint) (*models.RoomScene, error) {
	return s.SceneRepo.GetByID(sceneID)
}

// GetComponent returns a single component.
func (s *ReviewService) GetComponent(componentID uint) (*models.Component, error) {
	return s.ComponentRepo.GetByID(componentID)
}

// UpdateComponent renames or retypes a component (reviewers relabel
// auto-detected regions before accepting them).
func (s *ReviewService) UpdateComponent(componentID uint, name, componentType *string) (*models.Component, error) {
	return s.ComponentRepo.UpdateDetails(componentID, name, componentType)
}

// ComponentValidation is the payload returned by ValidateComponent.
type ComponentValidation struct {
	ComponentID  uint     `json:"component_id"`
	RoomCategory string   `json:"room_category"`
	Type         string   `json:"component_type"`
	Valid        bool     `json:"valid"`
	Message      string   `json:"message"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// ValidateComponent reports whether a component's type fits its scene's room
// category, with the alternative valid types for relabelling.
func (s *ReviewService) ValidateComponent(componentID uint) (*ComponentValidation, error) {
	comp, err := s.ComponentRepo.GetByID(componentID)
	if err != nil {
		return nil, err
	}
	scene, err := s.SceneRepo.GetByID(comp.RoomSceneID)
	if err != nil {
		return nil, err
	}

	valid, message := ValidateComponentCategory(scene.Category, comp.ComponentType)
	return &ComponentValidation{
		ComponentID:  comp.ID,
		RoomCategory: scene.Category,
		Type:         comp.ComponentType,
		Valid:        valid,
		Message:      message,
		Alternatives: AlternativeTypes(scene.Category, comp.ComponentType),
	}, nil
}

// DeleteScene removes a scene, its components, and their stored files. File
// cleanup is best-effort; the database rows are authoritative.
func (s *ReviewService) DeleteScene(sceneID uint) error {
	scene, err := s.SceneRepo.GetByID(sceneID)
	if err != nil {
		return err
	}

	if err := s.SceneRepo.Delete(sceneID); err != nil {
		return err
	}

	paths := make([]string, 0, len(scene.Components)+1)
	paths = append(paths, scene.FilePath)
	for _, comp := range scene.Components {
		paths = append(paths, comp.FilePath)
	}
	s.Processor.DeleteAssets(paths)

	log.Printf("review: deleted scene %d (%q) and %d component(s)", sceneID, scene.Name, len(scene.Components))
	return nil
}
