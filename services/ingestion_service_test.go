package services

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/repository"
	"github.com/camden-git/scenereviewbackend/segmentation"
)

func TestSubmitScene(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)

	engine := &stubEngine{candidates: []segmentation.Candidate{
		{Bounds: image.Rect(10, 10, 60, 50), Confidence: floatPtr(92.1)},
		{Bounds: image.Rect(70, 20, 110, 70), Confidence: floatPtr(45.0)},
		{Bounds: image.Rect(5, 60, 40, 75), Confidence: nil},
	}}
	svc := NewIngestionService(testConfig(), engine, newTestProcessor(t), sceneRepo)

	scene, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 120, 80), "kitchen", "Morning Kitchen")
	require.NoError(t, err)

	assert.Equal(t, "Morning Kitchen", scene.Name)
	assert.Equal(t, "kitchen", scene.Category)
	assert.NotEmpty(t, scene.FilePath)
	assert.Equal(t, 3, scene.TotalComponents)
	assert.Equal(t, 3, scene.PendingComponents)
	assert.Nil(t, scene.ReviewCompletedAt)

	require.NotNil(t, scene.SceneMetadata)
	assert.EqualValues(t, 120, jsonInt(t, scene.SceneMetadata["width"]))
	assert.EqualValues(t, 80, jsonInt(t, scene.SceneMetadata["height"]))

	loaded, err := sceneRepo.GetByID(scene.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Components, 3)

	first := loaded.Components[0]
	assert.Equal(t, "Component 1", first.Name)
	assert.Equal(t, AutoDetectedType, first.ComponentType)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.True(t, strings.HasSuffix(first.FilePath, ".jpg"))
	require.NotNil(t, first.ConfidenceScore)
	assert.InDelta(t, 92.1, *first.ConfidenceScore, 0.001)

	bounds, ok := first.PositionData["bounds"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 10, jsonInt(t, bounds["x1"]))
	assert.EqualValues(t, 60, jsonInt(t, bounds["x2"]))

	third := loaded.Components[2]
	assert.Nil(t, third.ConfidenceScore, "engine abstained on this region")
}

func TestSubmitSceneNoCandidates(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)
	svc := NewIngestionService(testConfig(), &stubEngine{}, newTestProcessor(t), sceneRepo)

	scene, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 60, 60), "bedroom", "Sparse Bedroom")
	require.NoError(t, err)

	assert.Equal(t, 0, scene.TotalComponents)
	require.NotNil(t, scene.ReviewCompletedAt, "an empty detection result needs no review")
}

func TestSubmitSceneValidation(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)
	svc := NewIngestionService(testConfig(), &stubEngine{}, newTestProcessor(t), sceneRepo)

	t.Run("empty name", func(t *testing.T) {
		_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "kitchen", "   ")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "garage", "Garage")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := svc.SubmitScene(context.Background(), strings.NewReader("definitely not a jpeg"), "kitchen", "Bogus")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestSubmitSceneEngineTimeout(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)

	cfg := testConfig()
	cfg.SegmentationTimeout = 50 * time.Millisecond
	svc := NewIngestionService(cfg, hangingEngine{}, newTestProcessor(t), sceneRepo)

	_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "kitchen", "Slow Kitchen")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEngineFailure))

	var engineErr *apperrors.EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.True(t, engineErr.Retryable)

	// nothing persisted: a retry starts from scratch
	var count int64
	require.NoError(t, db.Model(&models.RoomScene{}).Count(&count).Error)
	assert.Zero(t, count)
}

// assertNoStoredAssets checks that no scene or crop files survived a failed
// ingestion.
func assertNoStoredAssets(t *testing.T, base string) {
	t.Helper()

	for _, sub := range []string{"scenes", "component_crops"} {
		entries, err := os.ReadDir(filepath.Join(base, sub))
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		assert.Empty(t, entries, "leftover files in %s after aborted ingestion", sub)
	}
}

func TestSubmitSceneCropFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)
	processor, base := newTestProcessorWithBase(t)

	// the second candidate lies entirely outside the 40x40 scene, so its
	// crop cannot be rendered
	engine := &stubEngine{candidates: []segmentation.Candidate{
		{Bounds: image.Rect(5, 5, 30, 30), Confidence: floatPtr(80.0)},
		{Bounds: image.Rect(500, 500, 600, 600), Confidence: floatPtr(70.0)},
	}}
	svc := NewIngestionService(testConfig(), engine, processor, sceneRepo)

	_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "kitchen", "Half Rendered")
	require.Error(t, err)

	var scenes, comps int64
	require.NoError(t, db.Model(&models.RoomScene{}).Count(&scenes).Error)
	require.NoError(t, db.Model(&models.Component{}).Count(&comps).Error)
	assert.Zero(t, scenes)
	assert.Zero(t, comps)

	// the scene image and the one crop that did render are deleted again
	assertNoStoredAssets(t, base)
}

type failingSceneRepo struct {
	repository.SceneRepositoryInterface
}

func (failingSceneRepo) CreateWithComponents(scene *models.RoomScene, components []models.Component) error {
	return &apperrors.PersistenceError{Err: errors.New("disk full")}
}

func TestSubmitScenePersistenceFailureRollsBack(t *testing.T) {
	processor, base := newTestProcessorWithBase(t)
	engine := &stubEngine{candidates: []segmentation.Candidate{
		{Bounds: image.Rect(5, 5, 30, 30), Confidence: floatPtr(80.0)},
	}}
	svc := NewIngestionService(testConfig(), engine, processor, failingSceneRepo{})

	_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "kitchen", "Unstorable")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistence))

	assertNoStoredAssets(t, base)
}

func TestSubmitSceneEngineFailure(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)
	engine := &stubEngine{err: errors.New("model blew up")}
	svc := NewIngestionService(testConfig(), engine, newTestProcessor(t), sceneRepo)

	_, err := svc.SubmitScene(context.Background(), encodeJPEG(t, 40, 40), "kitchen", "Broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEngineFailure))

	var count int64
	require.NoError(t, db.Model(&models.RoomScene{}).Count(&count).Error)
	assert.Zero(t, count)
}
