package services

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/scenereviewbackend/repository"
	"github.com/camden-git/scenereviewbackend/segmentation"
)

// walks one scene from upload through a full review session and checks the
// counters at every step.
func TestReviewSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	sceneRepo := repository.NewSceneRepository(db)
	componentRepo := repository.NewComponentRepository(db)
	processor := newTestProcessor(t)

	engine := &stubEngine{candidates: []segmentation.Candidate{
		{Bounds: image.Rect(0, 0, 40, 40), Confidence: floatPtr(92.1)},
		{Bounds: image.Rect(40, 0, 80, 40), Confidence: floatPtr(45.0)},
		{Bounds: image.Rect(0, 40, 40, 80), Confidence: nil},
	}}
	ingestion := NewIngestionService(testConfig(), engine, processor, sceneRepo)
	review := NewReviewService(sceneRepo, componentRepo, processor)

	scene, err := ingestion.SubmitScene(context.Background(), encodeJPEG(t, 100, 100), "living_room", "Living Room A")
	require.NoError(t, err)
	require.Equal(t, 3, scene.TotalComponents)
	require.Equal(t, 3, scene.PendingComponents)

	loaded, err := review.GetScene(scene.ID)
	require.NoError(t, err)
	ids := []uint{loaded.Components[0].ID, loaded.Components[1].ID, loaded.Components[2].ID}

	_, err = review.Accept(ids[0], nil)
	require.NoError(t, err)
	step, err := review.GetScene(scene.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, step.PendingComponents)
	assert.Equal(t, 1, step.AcceptedComponents)
	assert.Nil(t, step.ReviewCompletedAt)

	_, err = review.Reject(ids[1], strPtr("not a distinct object"))
	require.NoError(t, err)
	step, err = review.GetScene(scene.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, step.PendingComponents)
	assert.Equal(t, 1, step.RejectedComponents)
	assert.Nil(t, step.ReviewCompletedAt)

	_, err = review.Accept(ids[2], nil)
	require.NoError(t, err)
	final, err := review.GetScene(scene.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.PendingComponents)
	assert.Equal(t, 2, final.AcceptedComponents)
	assert.Equal(t, 1, final.RejectedComponents)
	require.NotNil(t, final.ReviewCompletedAt)
	assert.InDelta(t, 100.0, final.ReviewProgress(), 0.001)
}
