package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	"gorm.io/datatypes"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/config"
	"github.com/camden-git/scenereviewbackend/media"
	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/repository"
	"github.com/camden-git/scenereviewbackend/segmentation"
)

// IngestionService orchestrates scene submission: validate the upload, run
// the segmentation engine, store the rendered assets, then persist the scene
// and its components in one transaction.
type IngestionService struct {
	Cfg       config.Config
	Engine    segmentation.Engine
	Processor *media.Processor
	SceneRepo repository.SceneRepositoryInterface
}

func NewIngestionService(cfg config.Config, engine segmentation.Engine, processor *media.Processor, sceneRepo repository.SceneRepositoryInterface) *IngestionService {
	return &IngestionService{Cfg: cfg, Engine: engine, Processor: processor, SceneRepo: sceneRepo}
}

// SubmitScene ingests one uploaded scene image.
//
// The segmentation call runs under its own deadline and completes fully
// before any database transaction is opened; it is the only long-running
// step in the pipeline. On any failure after assets were stored, the stored
// files are removed again, so no partial scene is ever visible — a retry
// with the same image starts from scratch.
func (s *IngestionService) SubmitScene(ctx context.Context, upload io.Reader, category, displayName string) (*models.RoomScene, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, apperrors.Validationf("scene name must not be empty")
	}
	if !s.Cfg.IsAllowedCategory(category) {
		return nil, apperrors.Validationf("category %q is not one of the configured room categories (%s)",
			category, strings.Join(s.Cfg.RoomCategories, ", "))
	}

	raw, err := io.ReadAll(upload)
	if err != nil {
		return nil, apperrors.Validationf("failed to read uploaded file: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Validationf("unsupported or unreadable image: %v", err)
	}

	detectCtx, cancel := context.WithTimeout(ctx, s.Cfg.SegmentationTimeout)
	defer cancel()

	candidates, err := s.Engine.Detect(detectCtx, img)
	if err != nil {
		if errors.Is(err, apperrors.ErrEngineFailure) {
			return nil, err
		}
		// timeouts and unknown engine errors are retryable: nothing has been
		// persisted yet
		return nil, &apperrors.EngineError{Err: err, Retryable: true}
	}

	var savedPaths []string
	cleanup := func() { s.Processor.DeleteAssets(savedPaths) }

	scenePath, err := s.Processor.SaveSceneImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to store scene image: %w", err)
	}
	savedPaths = append(savedPaths, scenePath)

	components := make([]models.Component, 0, len(candidates))
	for i, cand := range candidates {
		cropPath, err := s.Processor.RenderCrop(img, cand.Bounds)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to render crop for candidate %d: %w", i+1, err)
		}
		savedPaths = append(savedPaths, cropPath)

		components = append(components, models.Component{
			Name:            fmt.Sprintf("Component %d", i+1),
			ComponentType:   AutoDetectedType,
			FilePath:        cropPath,
			ConfidenceScore: cand.Confidence,
			PositionData:    positionData(cand.Bounds),
		})
	}

	scene := &models.RoomScene{
		Name:          displayName,
		Category:      category,
		FilePath:      scenePath,
		SceneMetadata: media.ExtractSceneMetadata(raw, img),
	}

	if err := s.SceneRepo.CreateWithComponents(scene, components); err != nil {
		cleanup()
		return nil, err
	}

	log.Printf("ingestion: scene %d (%q, %s) created with %d component(s)", scene.ID, scene.Name, scene.Category, len(components))
	return scene, nil
}

func positionData(b image.Rectangle) datatypes.JSONMap {
	return datatypes.JSONMap{
		"bounds": map[string]interface{}{
			"x1": b.Min.X,
			"y1": b.Min.Y,
			"x2": b.Max.X,
			"y2": b.Max.Y,
		},
		"center": []interface{}{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2},
		"size":   []interface{}{b.Dx(), b.Dy()},
	}
}
