package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/models"

	"github.com/google/uuid"
)

// ProgressRepository handles database operations for per-lesson progress
type ProgressRepository struct {
	db *database.DB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *database.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetChildProgress retrieves all progress records for a child
func (r *ProgressRepository) GetChildProgress(childID string) ([]models.ProgressRecord, error) {
	query := `
		SELECT id, child_id, lesson_id, completed, score, attempts, time_spent, completed_at
		FROM progress
		WHERE child_id = ?
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var record models.ProgressRecord
		var completedAt sql.NullTime

		if err := rows.Scan(
			&record.ID,
			&record.ChildID,
			&record.LessonID,
			&record.Completed,
			&record.Score,
			&record.Attempts,
			&record.TimeSpent,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}

		if completedAt.Valid {
			record.CompletedAt = &completedAt.Time
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetProgress retrieves the record for one (child, lesson) pair, or nil
func (r *ProgressRepository) GetProgress(childID, lessonID string) (*models.ProgressRecord, error) {
	query := `
		SELECT id, child_id, lesson_id, completed, score, attempts, time_spent, completed_at
		FROM progress
		WHERE child_id = ? AND lesson_id = ?
	`

	record := &models.ProgressRecord{}
	var completedAt sql.NullTime

	err := r.db.QueryRow(query, childID, lessonID).Scan(
		&record.ID,
		&record.ChildID,
		&record.LessonID,
		&record.Completed,
		&record.Score,
		&record.Attempts,
		&record.TimeSpent,
		&completedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	if completedAt.Valid {
		record.CompletedAt = &completedAt.Time
	}

	return record, nil
}

// SaveProgress upserts the record keyed on (child, lesson). A save with
// Completed stamps completed_at on the first completion; later saves
// overwrite score and time but keep the original completion time.
// Un-completing a lesson is not supported. Each save counts one attempt.
func (r *ProgressRepository) SaveProgress(childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	existing, err := r.GetProgress(childID, lessonID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		record := &models.ProgressRecord{
			ID:        uuid.New().String(),
			ChildID:   childID,
			LessonID:  lessonID,
			Completed: save.Completed,
			Score:     save.Score,
			Attempts:  1,
			TimeSpent: save.TimeSpent,
		}
		if save.Completed {
			now := time.Now()
			record.CompletedAt = &now
		}

		query := `
			INSERT INTO progress (id, child_id, lesson_id, completed, score, attempts, time_spent, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		var completedAt interface{}
		if record.CompletedAt != nil {
			completedAt = *record.CompletedAt
		}
		if _, err := r.db.Exec(query,
			record.ID, record.ChildID, record.LessonID, record.Completed,
			record.Score, record.Attempts, record.TimeSpent, completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to insert progress: %w", err)
		}

		return record, nil
	}

	record := *existing
	record.Completed = existing.Completed || save.Completed
	record.Score = save.Score
	record.TimeSpent = save.TimeSpent
	record.Attempts = existing.Attempts + 1
	if record.Completed && record.CompletedAt == nil {
		now := time.Now()
		record.CompletedAt = &now
	}

	query := `
		UPDATE progress
		SET completed = ?, score = ?, attempts = ?, time_spent = ?, completed_at = ?, updated_at = ?
		WHERE child_id = ? AND lesson_id = ?
	`
	var completedAt interface{}
	if record.CompletedAt != nil {
		completedAt = *record.CompletedAt
	}
	if _, err := r.db.Exec(query,
		record.Completed, record.Score, record.Attempts, record.TimeSpent,
		completedAt, time.Now(), childID, lessonID,
	); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return &record, nil
}
