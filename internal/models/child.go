package models

import "time"

// XPPerLevel is the amount of experience needed to advance one level.
const XPPerLevel = 100

// Tier labels shown next to a child's level.
const (
	TierNovice   = "Novice"
	TierExplorer = "Explorer"
	TierPro      = "Pro"
)

// ChildProfile represents a child profile in the system. A profile either
// belongs to a parent account (UserID set) or is a guest profile that lives
// only in the device's local store (UserID empty).
type ChildProfile struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Name           string    `json:"name"`
	HandPreference string    `json:"hand_preference"`
	ComputerType   string    `json:"computer_type"`
	Avatar         string    `json:"avatar,omitempty"`
	Career         string    `json:"career,omitempty"`
	XP             int       `json:"xp"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	TotalPlayTime  int       `json:"total_play_time"`
	CreatedAt      time.Time `json:"created_at"`
	LastActive     time.Time `json:"last_active"`
}

// IsGuest reports whether the profile is a local-only guest profile.
func (c *ChildProfile) IsGuest() bool {
	return c.UserID == ""
}

// Level derives the child's level from accumulated XP. The level is never
// stored; it is recomputed from XP every time.
func (c *ChildProfile) Level() int {
	return LevelForXP(c.XP)
}

// TierLabel returns the display tier for the child's current level.
func (c *ChildProfile) TierLabel() string {
	return TierForLevel(c.Level())
}

// XPToNextLevel returns how much XP the child needs to reach the next level.
func (c *ChildProfile) XPToNextLevel() int {
	return c.Level()*XPPerLevel - c.XP
}

// LevelForXP computes level = floor(xp/100) + 1. Defined for xp >= 0.
func LevelForXP(xp int) int {
	return xp/XPPerLevel + 1
}

// TierForLevel maps a level to its display tier: level 1 is Novice,
// levels 2-3 are Explorer, level 4 and above is Pro.
func TierForLevel(level int) string {
	switch {
	case level <= 1:
		return TierNovice
	case level <= 3:
		return TierExplorer
	default:
		return TierPro
	}
}
