package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/camden-git/scenereviewbackend/config"
	"github.com/camden-git/scenereviewbackend/database"
	"github.com/camden-git/scenereviewbackend/handlers"
	"github.com/camden-git/scenereviewbackend/media"
	"github.com/camden-git/scenereviewbackend/repository"
	"github.com/camden-git/scenereviewbackend/segmentation"
	"github.com/camden-git/scenereviewbackend/services"
	"github.com/camden-git/scenereviewbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	storagePaths := []string{cfg.ScenesPath, cfg.CropsPath, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		log.Printf("Ensuring storage directory exists: %s", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatalf("FATAL: Failed to create storage directory %s: %v", p, err)
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database schema: %v", err)
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypeScene: filepath.Base(cfg.ScenesPath),
		media.AssetTypeCrop:  filepath.Base(cfg.CropsPath),
	}
	mediaStore, err := media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize media store: %v", err)
	}
	mediaProcessor := media.NewProcessor(mediaStore, cfg.CropJpegQuality)

	engine := segmentation.NewDNNEngine(cfg.SegDNNNetConfigPath, cfg.SegDNNNetModelPath)

	sceneRepo := repository.NewSceneRepository(db)
	componentRepo := repository.NewComponentRepository(db)
	rollupRepo := repository.NewRollupRepository(db)

	ingestionService := services.NewIngestionService(cfg, engine, mediaProcessor, sceneRepo)
	reviewService := services.NewReviewService(sceneRepo, componentRepo, mediaProcessor)
	statsService, err := services.NewStatisticsService(db, rollupRepo, cfg.StatsStaleAfter)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize statistics service: %v", err)
	}

	log.Printf("Starting statistics refresher (interval: %s)", cfg.StatsRefreshInterval)
	statsRefresher := workers.NewStatsRefresher(statsService, cfg.StatsRefreshInterval)
	defer statsRefresher.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Storing scene uploads in: %s", cfg.ScenesPath)
	log.Printf("Storing component crops in: %s", cfg.CropsPath)
	log.Printf("Allowed room categories: %v", cfg.RoomCategories)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, //TODO: configurable
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * cfg.SegmentationTimeout))
	r.Use(corsHandler.Handler)

	sceneHandler := &handlers.SceneHandler{Cfg: cfg, Ingestion: ingestionService, Review: reviewService}
	componentHandler := &handlers.ComponentHandler{Review: reviewService}
	statsHandler := &handlers.StatsHandler{Stats: statsService, Review: reviewService}

	r.Route("/api", func(r chi.Router) {
		r.Route("/scenes", func(r chi.Router) {
			r.Post("/", sceneHandler.UploadScene)
			r.Get("/", sceneHandler.ListScenes)
			r.Route("/{scene_id}", func(r chi.Router) {
				r.Get("/", sceneHandler.GetScene)
				r.Delete("/", sceneHandler.DeleteScene)
				r.Get("/statistics", statsHandler.GetSceneStatistics)
			})
		})

		r.Route("/components", func(r chi.Router) {
			r.Route("/{component_id}", func(r chi.Router) {
				r.Get("/", componentHandler.GetComponent)
				r.Patch("/", componentHandler.UpdateComponent)
				r.Post("/accept", componentHandler.AcceptComponent)
				r.Post("/reject", componentHandler.RejectComponent)
				r.Get("/validate", componentHandler.ValidateComponent)
			})
		})

		r.Route("/statistics", func(r chi.Router) {
			r.Get("/", statsHandler.GetGlobalStatistics)
			r.Post("/refresh", statsHandler.RefreshStatistics)
		})

		sceneSubDir := filepath.Base(cfg.ScenesPath)
		r.Get(fmt.Sprintf("/%s/*", sceneSubDir), handlers.AssetServer(cfg.MediaStoragePath, sceneSubDir))
		log.Printf("Registered scene image server at /api/%s/*", sceneSubDir)

		cropSubDir := filepath.Base(cfg.CropsPath)
		r.Get(fmt.Sprintf("/%s/*", cropSubDir), handlers.AssetServer(cfg.MediaStoragePath, cropSubDir))
		log.Printf("Registered component crop server at /api/%s/*", cropSubDir)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port
	fmt.Printf("Server starting on http://localhost:%s\n", port)
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * cfg.SegmentationTimeout,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
