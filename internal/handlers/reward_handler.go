package handlers

import (
	"net/http"

	"clickstart/internal/service"
)

// RewardHandler handles daily reward endpoints
type RewardHandler struct {
	profiles *service.ProfileService
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(profiles *service.ProfileService) *RewardHandler {
	return &RewardHandler{profiles: profiles}
}

// Check handles GET /api/daily-rewards?child_id=&action=check
func (h *RewardHandler) Check(w http.ResponseWriter, r *http.Request) {
	childID := r.URL.Query().Get("child_id")
	if childID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id", nil)
		return
	}

	available, err := h.profiles.CheckDailyReward(GetUserFromContext(r.Context()), childID)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"available": available})
}

type claimRewardRequest struct {
	ChildID string `json:"child_id"`
}

// Claim handles POST /api/daily-rewards
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req claimRewardRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ChildID == "" {
		respondError(w, http.StatusBadRequest, "missing child_id", nil)
		return
	}

	claim, err := h.profiles.ClaimDailyReward(GetUserFromContext(r.Context()), req.ChildID)
	if err != nil {
		respondProfileError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, claim)
}
