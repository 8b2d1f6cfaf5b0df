package models

// ChildUpdate carries a partial update to a child profile; nil fields are
// left untouched. Streak counters are managed by the daily-reward claim and
// are not updatable here.
type ChildUpdate struct {
	Name           *string `json:"name,omitempty"`
	HandPreference *string `json:"hand_preference,omitempty"`
	ComputerType   *string `json:"computer_type,omitempty"`
	Avatar         *string `json:"avatar,omitempty"`
	Career         *string `json:"career,omitempty"`
	XP             *int    `json:"xp,omitempty"`
	TotalPlayTime  *int    `json:"total_play_time,omitempty"`
}

// SettingsUpdate carries a partial update to a settings record.
type SettingsUpdate struct {
	AudioEnabled    *bool   `json:"audio_enabled,omitempty"`
	TextSize        *string `json:"text_size,omitempty"`
	Difficulty      *int    `json:"difficulty,omitempty"`
	ScreenTimeLimit *int    `json:"screen_time_limit,omitempty"`
}

// ProgressSave is the payload of a progress upsert for one lesson.
type ProgressSave struct {
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
	TimeSpent int  `json:"time_spent"`
}
