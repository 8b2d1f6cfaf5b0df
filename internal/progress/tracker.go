// Package progress caches a child's lesson progress and derives the stats
// the UI shows. All persistence goes through the backend; the cache is
// rebuilt whenever the active child changes.
package progress

import (
	"context"
	"errors"
	"sync"

	"clickstart/internal/backend"
	"clickstart/internal/models"
)

var ErrNoChild = errors.New("no child loaded")

// Tracker holds the progress records of one child, keyed by lesson
type Tracker struct {
	backend backend.Backend

	mu      sync.RWMutex
	childID string
	records map[string]models.ProgressRecord
}

// Stats are derived entirely from the cached records
type Stats struct {
	CompletedLessons int
	TotalScore       int
	TotalTimeSpent   int
	TotalAttempts    int
}

// NewTracker creates a tracker with no child loaded
func NewTracker(b backend.Backend) *Tracker {
	return &Tracker{backend: b}
}

// Refresh replaces the cache with the backend's records for childID
func (t *Tracker) Refresh(ctx context.Context, childID string) error {
	records, err := t.backend.GetProgress(ctx, childID)
	if err != nil {
		return err
	}

	byLesson := make(map[string]models.ProgressRecord, len(records))
	for _, r := range records {
		byLesson[r.LessonID] = r
	}

	t.mu.Lock()
	t.childID = childID
	t.records = byLesson
	t.mu.Unlock()
	return nil
}

// CompleteLesson records a finished lesson: the backend upserts the record
// and the cache takes the stored result
func (t *Tracker) CompleteLesson(ctx context.Context, lessonID string, score, timeSpent int) (*models.ProgressRecord, error) {
	return t.save(ctx, lessonID, models.ProgressSave{
		Completed: true,
		Score:     score,
		TimeSpent: timeSpent,
	})
}

// RecordAttempt records an unfinished run through a lesson
func (t *Tracker) RecordAttempt(ctx context.Context, lessonID string, score, timeSpent int) (*models.ProgressRecord, error) {
	return t.save(ctx, lessonID, models.ProgressSave{
		Completed: false,
		Score:     score,
		TimeSpent: timeSpent,
	})
}

func (t *Tracker) save(ctx context.Context, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	t.mu.RLock()
	childID := t.childID
	t.mu.RUnlock()
	if childID == "" {
		return nil, ErrNoChild
	}

	record, err := t.backend.SaveProgress(ctx, childID, lessonID, save)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.childID == childID && record != nil {
		t.records[lessonID] = *record
	}
	t.mu.Unlock()

	return record, nil
}

// Record returns the cached record for a lesson
func (t *Tracker) Record(lessonID string) (models.ProgressRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[lessonID]
	return r, ok
}

// IsCompleted reports whether a lesson has ever been completed
func (t *Tracker) IsCompleted(lessonID string) bool {
	r, ok := t.Record(lessonID)
	return ok && r.Completed
}

// Stats derives totals from the cached records
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stats Stats
	for _, r := range t.records {
		if r.Completed {
			stats.CompletedLessons++
		}
		stats.TotalScore += r.Score
		stats.TotalTimeSpent += r.TimeSpent
		stats.TotalAttempts += r.Attempts
	}
	return stats
}

// CompletedByCategory counts completed lessons per category using the
// catalog to resolve each lesson's category
func (t *Tracker) CompletedByCategory(lessons []models.Lesson) map[string]int {
	categories := make(map[string]string, len(lessons))
	for _, l := range lessons {
		categories[l.ID] = l.Category
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range t.records {
		if !r.Completed {
			continue
		}
		if category, ok := categories[r.LessonID]; ok {
			counts[category]++
		}
	}
	return counts
}
