package handlers

import (
	"net/http"

	"clickstart/internal/models"
	"clickstart/internal/service"
)

// SettingsHandler handles per-child settings endpoints
type SettingsHandler struct {
	profiles *service.ProfileService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(profiles *service.ProfileService) *SettingsHandler {
	return &SettingsHandler{profiles: profiles}
}

// Get handles GET /api/settings?child_id=
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id", nil)
		return
	}

	settings, err := h.profiles.GetSettings(GetUserFromContext(r.Context()), childID)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

// Update handles PUT /api/settings?child_id=
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id", nil)
		return
	}

	var update models.SettingsUpdate
	if err := decodeBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	settings, err := h.profiles.UpdateSettings(GetUserFromContext(r.Context()), childID, update)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}
