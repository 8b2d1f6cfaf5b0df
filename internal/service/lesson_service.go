package service

import (
	"fmt"
	"log"

	"clickstart/internal/models"
	"clickstart/internal/repository"
)

// LessonService manages the lesson catalog
type LessonService struct {
	lessonRepo *repository.LessonRepository
}

// NewLessonService creates a new lesson service
func NewLessonService(lessonRepo *repository.LessonRepository) *LessonService {
	return &LessonService{lessonRepo: lessonRepo}
}

// ListLessons returns the catalog ordered by category and lesson number
func (s *LessonService) ListLessons() ([]models.Lesson, error) {
	lessons, err := s.lessonRepo.ListLessons()
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// SeedDefaultLessons inserts the built-in lesson catalog if the table is
// empty. Safe to call on every startup.
func (s *LessonService) SeedDefaultLessons() error {
	count, err := s.lessonRepo.CountLessons()
	if err != nil {
		return fmt.Errorf("failed to count lessons: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding default lesson catalog...")

	for _, lesson := range defaultLessons() {
		lesson := lesson
		if _, err := s.lessonRepo.CreateLesson(&lesson); err != nil {
			return fmt.Errorf("failed to seed lesson %q: %w", lesson.Title, err)
		}
	}

	log.Printf("Seeded %d lessons", len(defaultLessons()))
	return nil
}

// defaultLessons is the built-in computer literacy catalog. Mouse lessons
// are desktop-specific; trackpad lessons are laptop-specific; everything
// else applies to both.
func defaultLessons() []models.Lesson {
	return []models.Lesson{
		{ID: "mouse-01", Title: "Meet the Mouse", Category: "mouse", LessonNumber: 1, ComputerType: "desktop"},
		{ID: "mouse-02", Title: "Click and Double-Click", Category: "mouse", LessonNumber: 2, ComputerType: "desktop"},
		{ID: "mouse-03", Title: "Drag and Drop", Category: "mouse", LessonNumber: 3, ComputerType: "desktop"},
		{ID: "mouse-04", Title: "Scrolling Around", Category: "mouse", LessonNumber: 4, ComputerType: "desktop"},

		{ID: "trackpad-01", Title: "Meet the Trackpad", Category: "trackpad", LessonNumber: 1, ComputerType: "laptop"},
		{ID: "trackpad-02", Title: "Tap and Two-Finger Scroll", Category: "trackpad", LessonNumber: 2, ComputerType: "laptop"},
		{ID: "trackpad-03", Title: "Dragging with the Trackpad", Category: "trackpad", LessonNumber: 3, ComputerType: "laptop"},

		{ID: "keyboard-01", Title: "Find the Letters", Category: "keyboard", LessonNumber: 1},
		{ID: "keyboard-02", Title: "Space, Enter and Backspace", Category: "keyboard", LessonNumber: 2},
		{ID: "keyboard-03", Title: "Capital Letters with Shift", Category: "keyboard", LessonNumber: 3},
		{ID: "keyboard-04", Title: "Typing Your Name", Category: "keyboard", LessonNumber: 4},
		{ID: "keyboard-05", Title: "Numbers Row", Category: "keyboard", LessonNumber: 5},

		{ID: "files-01", Title: "What is a File?", Category: "files", LessonNumber: 1},
		{ID: "files-02", Title: "Folders Keep Things Tidy", Category: "files", LessonNumber: 2},
		{ID: "files-03", Title: "Saving Your Work", Category: "files", LessonNumber: 3},

		{ID: "safety-01", Title: "Asking a Grown-Up First", Category: "internet-safety", LessonNumber: 1},
		{ID: "safety-02", Title: "Keeping Secrets Secret", Category: "internet-safety", LessonNumber: 2},
		{ID: "safety-03", Title: "Being Kind Online", Category: "internet-safety", LessonNumber: 3},

		{ID: "creativity-01", Title: "Painting with Pixels", Category: "creativity", LessonNumber: 1},
		{ID: "creativity-02", Title: "Your First Slideshow", Category: "creativity", LessonNumber: 2},
	}
}
