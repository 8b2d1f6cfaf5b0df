package repository

import (
	"database/sql"
	"fmt"

	"clickstart/internal/database"
	"clickstart/internal/models"

	"github.com/google/uuid"
)

// LessonRepository handles database operations for the lesson catalog
type LessonRepository struct {
	db *database.DB
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *database.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListLessons retrieves the full catalog ordered by category then lesson number
func (r *LessonRepository) ListLessons() ([]models.Lesson, error) {
	query := `
		SELECT id, title, category, lesson_number, computer_type
		FROM lessons
		ORDER BY category ASC, lesson_number ASC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var lesson models.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.Title,
			&lesson.Category,
			&lesson.LessonNumber,
			&lesson.ComputerType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	return lessons, rows.Err()
}

// GetLessonByID retrieves a lesson, or nil if none exists
func (r *LessonRepository) GetLessonByID(id string) (*models.Lesson, error) {
	query := "SELECT id, title, category, lesson_number, computer_type FROM lessons WHERE id = ?"
	lesson := &models.Lesson{}
	err := r.db.QueryRow(query, id).Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Category,
		&lesson.LessonNumber,
		&lesson.ComputerType,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	return lesson, nil
}

// CountLessons returns the catalog size
func (r *LessonRepository) CountLessons() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// CreateLesson inserts a catalog entry; used by seeding
func (r *LessonRepository) CreateLesson(lesson *models.Lesson) (*models.Lesson, error) {
	created := *lesson
	if created.ID == "" {
		created.ID = uuid.New().String()
	}

	query := "INSERT INTO lessons (id, title, category, lesson_number, computer_type) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.Exec(query, created.ID, created.Title, created.Category, created.LessonNumber, created.ComputerType)
	if err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	return &created, nil
}
