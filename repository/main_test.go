package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/scenereviewbackend/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec("PRAGMA journal_mode=WAL;").Error)
	require.NoError(t, db.Exec("PRAGMA busy_timeout=5000;").Error)

	require.NoError(t, db.AutoMigrate(&models.RoomScene{}, &models.Component{}, &models.StatsRollup{}))
	return db
}

func seedScene(t *testing.T, repo *SceneRepository, name string, componentCount int) *models.RoomScene {
	t.Helper()

	components := make([]models.Component, componentCount)
	for i := range components {
		components[i] = models.Component{
			Name:          "Component",
			ComponentType: "auto_detected",
			FilePath:      "component_crops/fake.jpg",
		}
	}

	scene := &models.RoomScene{
		Name:     name,
		Category: "kitchen",
		FilePath: "scenes/fake.jpg",
	}
	require.NoError(t, repo.CreateWithComponents(scene, components))
	return scene
}
