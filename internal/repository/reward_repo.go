package repository

import (
	"fmt"

	"clickstart/internal/database"
	"clickstart/internal/models"

	"github.com/google/uuid"
)

// RewardRepository handles database operations for daily reward claims
type RewardRepository struct {
	db *database.DB
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db *database.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// HasClaimed reports whether a claim row exists for the child on the given
// calendar date.
func (r *RewardRepository) HasClaimed(childID, date string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM daily_rewards WHERE child_id = ? AND reward_date = ?"
	if err := r.db.QueryRow(query, childID, date).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check daily reward: %w", err)
	}
	return count > 0, nil
}

// Claim inserts the claim row for the date and advances the child's streak
// and XP in one transaction. The streak always moves forward by one; a
// missed day does not reset it. The unique key on (child_id, reward_date)
// makes a duplicate same-day claim fail instead of double-crediting.
func (r *RewardRepository) Claim(childID, date string, xp int) (*models.RewardClaim, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim: %w", err)
	}
	defer tx.Rollback()

	insert := "INSERT INTO daily_rewards (id, child_id, reward_date, xp_earned) VALUES (?, ?, ?, ?)"
	if _, err := tx.Exec(insert, uuid.New().String(), childID, date, xp); err != nil {
		return nil, fmt.Errorf("failed to record daily reward: %w", err)
	}

	var currentStreak, longestStreak int
	row := "SELECT current_streak, longest_streak FROM children WHERE id = ?"
	if err := tx.QueryRow(row, childID).Scan(&currentStreak, &longestStreak); err != nil {
		return nil, fmt.Errorf("failed to read streak: %w", err)
	}

	newStreak := currentStreak + 1
	if newStreak > longestStreak {
		longestStreak = newStreak
	}

	update := "UPDATE children SET current_streak = ?, longest_streak = ?, xp = xp + ? WHERE id = ?"
	if _, err := tx.Exec(update, newStreak, longestStreak, xp, childID); err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return &models.RewardClaim{XPEarned: xp, NewStreak: newStreak}, nil
}
