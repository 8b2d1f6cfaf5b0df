package handlers

import (
	"net/http"

	"clickstart/internal/models"
	"clickstart/internal/service"
)

// ProgressHandler handles lesson progress endpoints
type ProgressHandler struct {
	profiles *service.ProfileService
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(profiles *service.ProfileService) *ProgressHandler {
	return &ProgressHandler{profiles: profiles}
}

// Get handles GET /api/progress?child_id=
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id", nil)
		return
	}

	records, err := h.profiles.GetProgress(GetUserFromContext(r.Context()), childID)
	if err != nil {
		respondProfileError(w, err)
		return
	}
	if records == nil {
		records = []models.ProgressRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"progress": records})
}

type saveProgressRequest struct {
	ChildID  string `json:"child_id"`
	LessonID string `json:"lesson_id"`
	models.ProgressSave
}

// Save handles POST /api/progress
func (h *ProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveProgressRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ChildID == "" || req.LessonID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id or lesson_id", nil)
		return
	}

	record, err := h.profiles.SaveProgress(GetUserFromContext(r.Context()), req.ChildID, req.LessonID, req.ProgressSave)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"record": record})
}
