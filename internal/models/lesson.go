package models

// Lesson is a static catalog entry owned by the content subsystem. Read-only
// to this module apart from seeding.
type Lesson struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	LessonNumber int    `json:"lesson_number"`
	ComputerType string `json:"computer_type,omitempty"`
}
