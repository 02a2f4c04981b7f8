package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/scenereviewbackend/config"
	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/services"
)

const maxUploadBytes = 32 << 20 // 32 MiB

type SceneHandler struct {
	Cfg       config.Config
	Ingestion *services.IngestionService
	Review    *services.ReviewService
}

// sceneResponse augments the model with the derived review progress so the
// UI does not recompute it.
type sceneResponse struct {
	models.RoomScene
	ReviewProgress float64 `json:"review_progress"`
}

func sceneToResponse(scene *models.RoomScene) sceneResponse {
	return sceneResponse{RoomScene: *scene, ReviewProgress: scene.ReviewProgress()}
}

// UploadScene handles POST /api/scenes: a multipart form with the image
// under "file" plus "category" and optional "name" fields.
func (sh *SceneHandler) UploadScene(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "No file provided")
		return
	}
	defer file.Close()

	category := r.FormValue("category")
	name := r.FormValue("name")
	if name == "" && header != nil {
		base := filepath.Base(header.Filename)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	scene, err := sh.Ingestion.SubmitScene(r.Context(), file, category, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sceneToResponse(scene))
}

// ListScenes handles GET /api/scenes. ?sort=name returns scenes in natural
// name order instead of newest first.
func (sh *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	naturalOrder := r.URL.Query().Get("sort") == "name"
	scenes, err := sh.Review.SceneRepo.ListAll(naturalOrder)
	if err != nil {
		log.Printf("Error listing scenes: %v", err)
		writeServiceError(w, err)
		return
	}

	responses := make([]sceneResponse, len(scenes))
	for i := range scenes {
		responses[i] = sceneToResponse(&scenes[i])
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetScene handles GET /api/scenes/{scene_id}, returning the scene with its
// components.
func (sh *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := parseUintParam(w, r, "scene_id")
	if !ok {
		return
	}

	scene, err := sh.Review.GetScene(sceneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sceneToResponse(scene))
}

// DeleteScene handles DELETE /api/scenes/{scene_id}. Deletion cascades to
// the scene's components and their stored files.
func (sh *SceneHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := parseUintParam(w, r, "scene_id")
	if !ok {
		return
	}

	if err := sh.Review.DeleteScene(sceneID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Scene deleted successfully"})
}

func parseUintParam(w http.ResponseWriter, r *http.Request, param string) (uint, bool) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Invalid "+param+" format")
		return 0, false
	}
	return uint(id), true
}
