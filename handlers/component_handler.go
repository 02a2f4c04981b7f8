package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/camden-git/scenereviewbackend/services"
)

type ComponentHandler struct {
	Review *services.ReviewService
}

type reviewRequest struct {
	Notes *string `json:"notes"`
}

// GetComponent handles GET /api/components/{component_id}.
func (ch *ComponentHandler) GetComponent(w http.ResponseWriter, r *http.Request) {
	componentID, ok := parseUintParam(w, r, "component_id")
	if !ok {
		return
	}

	comp, err := ch.Review.GetComponent(componentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// AcceptComponent handles POST /api/components/{component_id}/accept with an
// optional JSON body carrying reviewer notes.
func (ch *ComponentHandler) AcceptComponent(w http.ResponseWriter, r *http.Request) {
	componentID, ok := parseUintParam(w, r, "component_id")
	if !ok {
		return
	}

	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}

	comp, err := ch.Review.Accept(componentID, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// RejectComponent handles POST /api/components/{component_id}/reject. Notes
// are mandatory for rejections.
func (ch *ComponentHandler) RejectComponent(w http.ResponseWriter, r *http.Request) {
	componentID, ok := parseUintParam(w, r, "component_id")
	if !ok {
		return
	}

	req, ok := decodeReviewRequest(w, r)
	if !ok {
		return
	}

	comp, err := ch.Review.Reject(componentID, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// UpdateComponent handles PATCH /api/components/{component_id} for renaming
// or retyping a component before review.
func (ch *ComponentHandler) UpdateComponent(w http.ResponseWriter, r *http.Request) {
	componentID, ok := parseUintParam(w, r, "component_id")
	if !ok {
		return
	}

	var req struct {
		Name          *string `json:"name"`
		ComponentType *string `json:"component_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Invalid request body: "+err.Error())
		return
	}

	comp, err := ch.Review.UpdateComponent(componentID, req.Name, req.ComponentType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comp)
}

// ValidateComponent handles GET /api/components/{component_id}/validate,
// reporting whether the component's type fits its scene's category.
func (ch *ComponentHandler) ValidateComponent(w http.ResponseWriter, r *http.Request) {
	componentID, ok := parseUintParam(w, r, "component_id")
	if !ok {
		return
	}

	validation, err := ch.Review.ValidateComponent(componentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validation)
}

// decodeReviewRequest tolerates an empty body; accept does not require notes.
func decodeReviewRequest(w http.ResponseWriter, r *http.Request) (reviewRequest, bool) {
	var req reviewRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}
