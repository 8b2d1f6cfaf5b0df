package models

import "time"

// Text size options for the settings record.
const (
	TextSizeSmall  = "small"
	TextSizeMedium = "medium"
	TextSizeLarge  = "large"
)

// Settings holds per-child preferences. A record is created lazily with
// defaults the first time it is read.
type Settings struct {
	ChildID         string    `json:"child_id"`
	AudioEnabled    bool      `json:"audio_enabled"`
	TextSize        string    `json:"text_size"`
	Difficulty      int       `json:"difficulty"`
	ScreenTimeLimit int       `json:"screen_time_limit"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings a child starts with: audio on, medium
// text, difficulty 1, no screen-time limit.
func DefaultSettings(childID string) *Settings {
	return &Settings{
		ChildID:      childID,
		AudioEnabled: true,
		TextSize:     TextSizeMedium,
		Difficulty:   1,
	}
}
