package models

import "time"

// ProgressRecord tracks a child's progress on a single lesson. There is
// exactly one record per (child, lesson) pair; repeated completions overwrite
// the existing record.
type ProgressRecord struct {
	ID          string     `json:"id"`
	ChildID     string     `json:"child_id"`
	LessonID    string     `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	Score       int        `json:"score"`
	Attempts    int        `json:"attempts"`
	TimeSpent   int        `json:"time_spent"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
