package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultScenesSubDir = "scenes"
	DefaultCropsSubDir  = "component_crops"
)

const (
	defaultRoomCategories      = "living_room,bedroom,kitchen,bathroom,dining_room"
	defaultSegmentationTimeout = 60 // seconds
	defaultStatsRefreshSecs    = 300
	defaultStatsStaleSecs      = 60
	defaultCropJpegQuality     = 90
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for stored assets (scene uploads, crops)
	ScenesPath       string // full-calculated path for uploaded scene images
	CropsPath        string // full-calculated path for rendered component crops

	// allowed scene categories
	RoomCategories []string

	// segmentation engine settings
	SegmentationTimeout time.Duration
	SegDNNNetConfigPath string
	SegDNNNetModelPath  string

	// statistics rollup settings
	StatsRefreshInterval time.Duration
	StatsStaleAfter      time.Duration

	// crop rendering settings
	CropJpegQuality int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// IsAllowedCategory reports whether category is one of the configured room
// categories.
func (c Config) IsAllowedCategory(category string) bool {
	for _, allowed := range c.RoomCategories {
		if category == allowed {
			return true
		}
	}
	return false
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "scenes.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	sceneSubDir := getEnvOrDefault("SCENES_SUBDIR", DefaultScenesSubDir)
	absScenesPath := filepath.Join(absMediaStorage, sceneSubDir)

	cropSubDir := getEnvOrDefault("CROPS_SUBDIR", DefaultCropsSubDir)
	absCropsPath := filepath.Join(absMediaStorage, cropSubDir)

	categoriesRaw := getEnvOrDefault("ROOM_CATEGORIES", defaultRoomCategories)
	var categories []string
	for _, c := range strings.Split(categoriesRaw, ",") {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	if len(categories) == 0 {
		return Config{}, fmt.Errorf("ROOM_CATEGORIES '%s' contains no usable categories", categoriesRaw)
	}

	segTimeout := getEnvIntOrDefault("SEGMENTATION_TIMEOUT_SECONDS", defaultSegmentationTimeout)
	statsRefresh := getEnvIntOrDefault("STATS_REFRESH_SECONDS", defaultStatsRefreshSecs)
	statsStale := getEnvIntOrDefault("STATS_STALE_SECONDS", defaultStatsStaleSecs)
	cropQuality := getEnvIntOrDefault("CROP_JPEG_QUALITY", defaultCropJpegQuality)

	segDNNConfig := getEnvOrDefault("SEG_DNN_CONFIG_PATH", "./models/deploy.prototxt.txt")
	segDNNModel := getEnvOrDefault("SEG_DNN_MODEL_PATH", "./models/segmentation_ssd.caffemodel")

	cfg := Config{
		DatabasePath:         dbPath,
		MediaStoragePath:     absMediaStorage,
		ScenesPath:           absScenesPath,
		CropsPath:            absCropsPath,
		RoomCategories:       categories,
		SegmentationTimeout:  time.Duration(segTimeout) * time.Second,
		SegDNNNetConfigPath:  segDNNConfig,
		SegDNNNetModelPath:   segDNNModel,
		StatsRefreshInterval: time.Duration(statsRefresh) * time.Second,
		StatsStaleAfter:      time.Duration(statsStale) * time.Second,
		CropJpegQuality:      cropQuality,
	}

	return cfg, nil
}
