package handlers

import (
	"net/http"

	"clickstart/internal/models"
	"clickstart/internal/service"
)

// ChildHandler handles child profile endpoints
type ChildHandler struct {
	profiles *service.ProfileService
}

// NewChildHandler creates a new child handler
func NewChildHandler(profiles *service.ProfileService) *ChildHandler {
	return &ChildHandler{profiles: profiles}
}

// List handles GET /api/children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	children, err := h.profiles.ListChildren(user.ID)
	if err != nil {
		respondProfileError(w, err)
		return
	}
	if children == nil {
		children = []models.ChildProfile{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"children": children})
}

// Create handles POST /api/children. Without a bearer token the profile is
// created as a guest profile.
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var child models.ChildProfile
	if err := decodeBody(r, &child); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	created, err := h.profiles.CreateChild(GetUserFromContext(r.Context()), &child)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"child": created})
}

// Update handles PUT /api/children?id=
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing child id", nil)
		return
	}

	var update models.ChildUpdate
	if err := decodeBody(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	updated, err := h.profiles.UpdateChild(GetUserFromContext(r.Context()), id, update)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"child": updated})
}
