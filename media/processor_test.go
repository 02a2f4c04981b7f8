package media

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) (*Processor, string) {
	t.Helper()

	base := t.TempDir()
	store, err := NewLocalStorage(base, map[AssetType]string{
		AssetTypeScene: "scenes",
		AssetTypeCrop:  "component_crops",
	})
	require.NoError(t, err)
	return NewProcessor(store, 90), base
}

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestSaveSceneImage(t *testing.T) {
	p, base := newTestProcessor(t)

	relPath, err := p.SaveSceneImage(testImage(64, 48))
	require.NoError(t, err)

	assert.Equal(t, "scenes", filepath.Dir(relPath))
	assert.Equal(t, ".jpg", filepath.Ext(relPath))

	_, err = os.Stat(filepath.Join(base, relPath))
	assert.NoError(t, err)
}

func TestRenderCrop(t *testing.T) {
	p, base := newTestProcessor(t)
	scene := testImage(100, 80)

	t.Run("bounds inside the scene", func(t *testing.T) {
		relPath, err := p.RenderCrop(scene, image.Rect(10, 10, 50, 40))
		require.NoError(t, err)
		assert.Equal(t, "component_crops", filepath.Dir(relPath))

		_, err = os.Stat(filepath.Join(base, relPath))
		assert.NoError(t, err)
	})

	t.Run("bounds partially outside are clamped", func(t *testing.T) {
		relPath, err := p.RenderCrop(scene, image.Rect(80, 60, 200, 200))
		require.NoError(t, err)
		assert.NotEmpty(t, relPath)
	})

	t.Run("bounds fully outside fail", func(t *testing.T) {
		_, err := p.RenderCrop(scene, image.Rect(500, 500, 600, 600))
		assert.Error(t, err)
	})
}

func TestDeleteAssets(t *testing.T) {
	p, base := newTestProcessor(t)

	relPath, err := p.SaveSceneImage(testImage(10, 10))
	require.NoError(t, err)

	p.DeleteAssets([]string{relPath, "", "scenes/never-existed.jpg"})

	_, err = os.Stat(filepath.Join(base, relPath))
	assert.True(t, os.IsNotExist(err))
}
