package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"clickstart/internal/backend"
	"clickstart/internal/models"
)

// progressBackend implements just enough of the backend contract for the
// tracker; everything else panics if reached.
type progressBackend struct {
	backend.Backend

	records map[string][]models.ProgressRecord
	saves   []models.ProgressSave
	saveErr error
}

func (b *progressBackend) GetProgress(ctx context.Context, childID string) ([]models.ProgressRecord, error) {
	return b.records[childID], nil
}

func (b *progressBackend) SaveProgress(ctx context.Context, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	if b.saveErr != nil {
		return nil, b.saveErr
	}
	b.saves = append(b.saves, save)

	record := models.ProgressRecord{
		ID:        "p-" + lessonID,
		ChildID:   childID,
		LessonID:  lessonID,
		Completed: save.Completed,
		Score:     save.Score,
		TimeSpent: save.TimeSpent,
		Attempts:  1,
	}
	if save.Completed {
		now := time.Now()
		record.CompletedAt = &now
	}
	return &record, nil
}

func TestTrackerRefreshAndStats(t *testing.T) {
	done := time.Now()
	b := &progressBackend{records: map[string][]models.ProgressRecord{
		"c1": {
			{LessonID: "keyboard-01", Completed: true, Score: 80, TimeSpent: 120, Attempts: 2, CompletedAt: &done},
			{LessonID: "keyboard-02", Completed: false, Score: 30, TimeSpent: 45, Attempts: 1},
			{LessonID: "mouse-01", Completed: true, Score: 95, TimeSpent: 60, Attempts: 1, CompletedAt: &done},
		},
	}}

	tracker := NewTracker(b)
	if err := tracker.Refresh(context.Background(), "c1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if !tracker.IsCompleted("keyboard-01") {
		t.Error("keyboard-01 should be completed")
	}
	if tracker.IsCompleted("keyboard-02") {
		t.Error("keyboard-02 should not be completed")
	}
	if tracker.IsCompleted("never-played") {
		t.Error("unknown lessons are not completed")
	}

	stats := tracker.Stats()
	if stats.CompletedLessons != 2 {
		t.Errorf("completed = %d, want 2", stats.CompletedLessons)
	}
	if stats.TotalScore != 205 {
		t.Errorf("total score = %d, want 205", stats.TotalScore)
	}
	if stats.TotalTimeSpent != 225 {
		t.Errorf("total time = %d, want 225", stats.TotalTimeSpent)
	}
	if stats.TotalAttempts != 4 {
		t.Errorf("total attempts = %d, want 4", stats.TotalAttempts)
	}
}

func TestTrackerCompleteLessonUpdatesCache(t *testing.T) {
	b := &progressBackend{records: map[string][]models.ProgressRecord{}}

	tracker := NewTracker(b)
	if err := tracker.Refresh(context.Background(), "c1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	record, err := tracker.CompleteLesson(context.Background(), "files-01", 90, 180)
	if err != nil {
		t.Fatalf("CompleteLesson failed: %v", err)
	}
	if !record.Completed || record.Score != 90 {
		t.Errorf("record = %+v", record)
	}
	if len(b.saves) != 1 || !b.saves[0].Completed {
		t.Errorf("saves = %+v, want one completed save", b.saves)
	}
	if !tracker.IsCompleted("files-01") {
		t.Error("cache should reflect the stored record without another refresh")
	}
}

func TestTrackerRecordAttempt(t *testing.T) {
	b := &progressBackend{}

	tracker := NewTracker(b)
	if err := tracker.Refresh(context.Background(), "c1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := tracker.RecordAttempt(context.Background(), "files-01", 20, 30); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if tracker.IsCompleted("files-01") {
		t.Error("an attempt must not mark the lesson completed")
	}
	if r, ok := tracker.Record("files-01"); !ok || r.Score != 20 {
		t.Errorf("record = %+v, %v", r, ok)
	}
}

func TestTrackerWithoutChild(t *testing.T) {
	tracker := NewTracker(&progressBackend{})
	if _, err := tracker.CompleteLesson(context.Background(), "files-01", 50, 60); !errors.Is(err, ErrNoChild) {
		t.Errorf("err = %v, want ErrNoChild", err)
	}
}

func TestTrackerCompletedByCategory(t *testing.T) {
	done := time.Now()
	b := &progressBackend{records: map[string][]models.ProgressRecord{
		"c1": {
			{LessonID: "keyboard-01", Completed: true, CompletedAt: &done},
			{LessonID: "keyboard-02", Completed: true, CompletedAt: &done},
			{LessonID: "mouse-01", Completed: false},
		},
	}}

	tracker := NewTracker(b)
	if err := tracker.Refresh(context.Background(), "c1"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	lessons := []models.Lesson{
		{ID: "keyboard-01", Category: "keyboard"},
		{ID: "keyboard-02", Category: "keyboard"},
		{ID: "mouse-01", Category: "mouse"},
	}

	counts := tracker.CompletedByCategory(lessons)
	if counts["keyboard"] != 2 {
		t.Errorf("keyboard = %d, want 2", counts["keyboard"])
	}
	if counts["mouse"] != 0 {
		t.Errorf("mouse = %d, want 0", counts["mouse"])
	}
}
