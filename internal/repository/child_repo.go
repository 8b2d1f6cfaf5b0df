package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/models"

	"github.com/google/uuid"
)

// ChildRepository handles database operations for child profiles
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new child profile. An empty UserID creates a
// guest-associated row; an empty ID gets a generated one.
func (r *ChildRepository) CreateChild(child *models.ChildProfile) (*models.ChildProfile, error) {
	created := *child
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	now := time.Now()
	created.CreatedAt = now
	created.LastActive = now

	var userID sql.NullString
	if created.UserID != "" {
		userID = sql.NullString{String: created.UserID, Valid: true}
	}

	query := `
		INSERT INTO children
			(id, user_id, name, hand_preference, computer_type, avatar, career,
			 xp, current_streak, longest_streak, total_play_time, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		created.ID, userID, created.Name, created.HandPreference, created.ComputerType,
		created.Avatar, created.Career, created.XP, created.CurrentStreak,
		created.LongestStreak, created.TotalPlayTime, created.CreatedAt, created.LastActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &created, nil
}

// GetChildByID retrieves a child by ID, or nil if none exists
func (r *ChildRepository) GetChildByID(id string) (*models.ChildProfile, error) {
	query := childSelect + " WHERE id = ?"

	child, err := scanChild(r.db.QueryRow(query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetUserChildren retrieves all children belonging to a parent account
func (r *ChildRepository) GetUserChildren(userID string) ([]models.ChildProfile, error) {
	query := childSelect + " WHERE user_id = ? ORDER BY created_at ASC"

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.ChildProfile
	for rows.Next() {
		child, err := scanChildRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}

	return children, rows.Err()
}

// UpdateChild applies a partial update and returns the stored profile
func (r *ChildRepository) UpdateChild(id string, update models.ChildUpdate) (*models.ChildProfile, error) {
	child, err := r.GetChildByID(id)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, nil
	}

	if update.Name != nil {
		child.Name = *update.Name
	}
	if update.HandPreference != nil {
		child.HandPreference = *update.HandPreference
	}
	if update.ComputerType != nil {
		child.ComputerType = *update.ComputerType
	}
	if update.Avatar != nil {
		child.Avatar = *update.Avatar
	}
	if update.Career != nil {
		child.Career = *update.Career
	}
	if update.XP != nil {
		child.XP = *update.XP
	}
	if update.TotalPlayTime != nil {
		child.TotalPlayTime = *update.TotalPlayTime
	}
	child.LastActive = time.Now()

	query := `
		UPDATE children
		SET name = ?, hand_preference = ?, computer_type = ?, avatar = ?, career = ?,
		    xp = ?, total_play_time = ?, last_active = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query,
		child.Name, child.HandPreference, child.ComputerType, child.Avatar, child.Career,
		child.XP, child.TotalPlayTime, child.LastActive, child.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}

	return child, nil
}

// TouchLastActive stamps the child's last activity time
func (r *ChildRepository) TouchLastActive(id string) error {
	query := "UPDATE children SET last_active = ? WHERE id = ?"
	if _, err := r.db.Exec(query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to touch child: %w", err)
	}
	return nil
}

// DeleteChild deletes a child profile
func (r *ChildRepository) DeleteChild(id string) error {
	query := "DELETE FROM children WHERE id = ?"
	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

const childSelect = `
	SELECT id, user_id, name, hand_preference, computer_type, avatar, career,
	       xp, current_streak, longest_streak, total_play_time, created_at, last_active
	FROM children
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row *sql.Row) (*models.ChildProfile, error) {
	child, err := scanChildRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return child, err
}

func scanChildRow(row rowScanner) (*models.ChildProfile, error) {
	child := &models.ChildProfile{}
	var userID sql.NullString

	err := row.Scan(
		&child.ID,
		&userID,
		&child.Name,
		&child.HandPreference,
		&child.ComputerType,
		&child.Avatar,
		&child.Career,
		&child.XP,
		&child.CurrentStreak,
		&child.LongestStreak,
		&child.TotalPlayTime,
		&child.CreatedAt,
		&child.LastActive,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		child.UserID = userID.String
	}

	return child, nil
}
