package handlers

import (
	"net/http"

	"github.com/camden-git/scenereviewbackend/models"
	"github.com/camden-git/scenereviewbackend/services"
)

type StatsHandler struct {
	Stats  *services.StatisticsService
	Review *services.ReviewService
}

// GetGlobalStatistics handles GET /api/statistics, serving the most recent
// all-scenes rollup (refreshed inline only if stale).
func (st *StatsHandler) GetGlobalStatistics(w http.ResponseWriter, r *http.Request) {
	rollup, err := st.Stats.Latest(models.RollupScopeGlobal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// GetSceneStatistics handles GET /api/scenes/{scene_id}/statistics.
func (st *StatsHandler) GetSceneStatistics(w http.ResponseWriter, r *http.Request) {
	sceneID, ok := parseUintParam(w, r, "scene_id")
	if !ok {
		return
	}

	// 404 for unknown scenes rather than an empty rollup
	if _, err := st.Review.GetScene(sceneID); err != nil {
		writeServiceError(w, err)
		return
	}

	rollup, err := st.Stats.Latest(sceneID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// RefreshStatistics handles POST /api/statistics/refresh, forcing a new
// global snapshot regardless of staleness.
func (st *StatsHandler) RefreshStatistics(w http.ResponseWriter, r *http.Request) {
	rollup, err := st.Stats.Refresh(models.RollupScopeGlobal)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}
