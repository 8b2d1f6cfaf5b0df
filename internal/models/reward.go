package models

import "time"

// RewardDateLayout is the local calendar date format used to key daily
// reward claims. Dates are device/server local, not timezone-normalized.
const RewardDateLayout = "2006-01-02"

// DailyRewardXP is the fixed amount of XP granted by a daily-reward claim.
const DailyRewardXP = 50

// DailyReward records a claimed daily reward. One row per (child, date);
// the presence of today's row means the reward has already been claimed.
type DailyReward struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	RewardDate string    `json:"reward_date"`
	XPEarned   int       `json:"xp_earned"`
	CreatedAt  time.Time `json:"created_at"`
}

// RewardClaim is the result of claiming the daily reward.
type RewardClaim struct {
	XPEarned  int `json:"xp_earned"`
	NewStreak int `json:"new_streak"`
}

// Today returns the current local calendar date in RewardDateLayout.
func Today() string {
	return time.Now().Format(RewardDateLayout)
}
