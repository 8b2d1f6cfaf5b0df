package handlers

import (
	"net/http"

	"clickstart/internal/models"
	"clickstart/internal/service"
)

// LessonHandler serves the lesson catalog
type LessonHandler struct {
	lessons *service.LessonService
}

// NewLessonHandler creates a new lesson handler
func NewLessonHandler(lessons *service.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// List handles GET /api/lessons
func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessons.ListLessons()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list lessons", err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}
