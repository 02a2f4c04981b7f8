package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/scenereviewbackend/apperrors"
	"github.com/camden-git/scenereviewbackend/models"
)

func TestCreateWithComponents(t *testing.T) {
	repo := NewSceneRepository(newTestDB(t))

	scene := seedScene(t, repo, "Kitchen A", 3)

	assert.NotZero(t, scene.ID)
	assert.Equal(t, 3, scene.TotalComponents)
	assert.Equal(t, 3, scene.PendingComponents)
	assert.Equal(t, 0, scene.AcceptedComponents)
	assert.Equal(t, 0, scene.RejectedComponents)
	assert.Nil(t, scene.ReviewCompletedAt, "scene with pending work must not be complete")

	loaded, err := repo.GetByID(scene.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Components, 3)
	for _, comp := range loaded.Components {
		assert.Equal(t, models.StatusPending, comp.Status)
		assert.Equal(t, scene.ID, comp.RoomSceneID)
		assert.Nil(t, comp.ReviewedAt)
	}
}

func TestCreateWithComponentsEmptyScene(t *testing.T) {
	repo := NewSceneRepository(newTestDB(t))

	scene := seedScene(t, repo, "Empty Hallway", 0)

	assert.Equal(t, 0, scene.TotalComponents)
	assert.Equal(t, 0, scene.PendingComponents)
	require.NotNil(t, scene.ReviewCompletedAt, "a scene with nothing to review is complete on arrival")
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewSceneRepository(newTestDB(t))

	_, err := repo.GetByID(9999)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestListAllOrdering(t *testing.T) {
	repo := NewSceneRepository(newTestDB(t))

	seedScene(t, repo, "Scene 10", 0)
	seedScene(t, repo, "Scene 2", 0)
	seedScene(t, repo, "Scene 1", 0)

	t.Run("default is newest first", func(t *testing.T) {
		scenes, err := repo.ListAll(false)
		require.NoError(t, err)
		require.Len(t, scenes, 3)
		assert.Equal(t, "Scene 1", scenes[0].Name)
		assert.Equal(t, "Scene 10", scenes[2].Name)
	})

	t.Run("natural name order", func(t *testing.T) {
		scenes, err := repo.ListAll(true)
		require.NoError(t, err)
		require.Len(t, scenes, 3)
		assert.Equal(t, "Scene 1", scenes[0].Name)
		assert.Equal(t, "Scene 2", scenes[1].Name)
		assert.Equal(t, "Scene 10", scenes[2].Name)
	})
}

func TestDeleteRemovesComponents(t *testing.T) {
	db := newTestDB(t)
	repo := NewSceneRepository(db)

	scene := seedScene(t, repo, "Doomed", 2)
	require.NoError(t, repo.Delete(scene.ID))

	_, err := repo.GetByID(scene.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	var count int64
	require.NoError(t, db.Model(&models.Component{}).Where("room_scene_id = ?", scene.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteNotFound(t *testing.T) {
	repo := NewSceneRepository(newTestDB(t))
	err := repo.Delete(424242)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
