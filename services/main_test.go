package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/scenereviewbackend/config"
	"github.com/camden-git/scenereviewbackend/media"
	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/segmentation"
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

func newTestProcessor(t *testing.T) *media.Processor {
	p, _ := newTestProcessorWithBase(t)
	return p
}

func newTestProcessorWithBase(t *testing.T) (*media.Processor, string) {
	t.Helper()

	base := t.TempDir()
	store, err := media.NewLocalStorage(base, map[media.AssetType]string{
		media.AssetTypeScene: "scenes",
		media.AssetTypeCrop:  "component_crops",
	})
	require.NoError(t, err)
	return media.NewProcessor(store, 90), base
}

func testConfig() config.Config {
	return config.Config{
		RoomCategories:      []string{"living_room", "bedroom", "kitchen", "bathroom", "dining_room"},
		SegmentationTimeout: 2 * time.Second,
		CropJpegQuality:     90,
	}
}

// encodeJPEG produces an uploadable JPEG of the given dimensions.
func encodeJPEG(t *testing.T, width, height int) *bytes.Reader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return bytes.NewReader(buf.Bytes())
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

// jsonInt unwraps a numeric value that round-tripped through a JSON column.
func jsonInt(t *testing.T, v interface{}) int64 {
	t.Helper()

	num, ok := v.(json.Number)
	require.True(t, ok, "expected json.Number, got %T (%v)", v, v)
	i, err := num.Int64()
	require.NoError(t, err)
	return i
}

type stubEngine struct {
	candidates []segmentation.Candidate
	err        error
}

func (e *stubEngine) Detect(ctx context.Context, img image.Image) ([]segmentation.Candidate, error) {
	return e.candidates, e.err
}

// hangingEngine blocks until the detection deadline fires.
type hangingEngine struct{}

func (hangingEngine) Detect(ctx context.Context, img image.Image) ([]segmentation.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
