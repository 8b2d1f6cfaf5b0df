package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/models"
)

// BackupService exports and imports the full dataset as JSON. Imports are
// additive; existing rows with the same primary key are left in place.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Backup is the on-disk backup format
type Backup struct {
	Version   int                     `json:"version"`
	CreatedAt time.Time               `json:"created_at"`
	Users     []backupUser            `json:"users"`
	Children  []models.ChildProfile   `json:"children"`
	Lessons   []models.Lesson         `json:"lessons"`
	Progress  []models.ProgressRecord `json:"progress"`
	Settings  []models.Settings       `json:"settings"`
	Rewards   []models.DailyReward    `json:"daily_rewards"`
}

// backupUser includes the password hash, which the API user model never
// serializes
type backupUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const backupVersion = 1

// Export writes the full dataset to w
func (s *BackupService) Export(w io.Writer) error {
	backup := Backup{
		Version:   backupVersion,
		CreatedAt: time.Now(),
	}

	var err error
	if backup.Users, err = s.exportUsers(); err != nil {
		return err
	}
	if backup.Children, err = s.exportChildren(); err != nil {
		return err
	}
	if backup.Lessons, err = s.exportLessons(); err != nil {
		return err
	}
	if backup.Progress, err = s.exportProgress(); err != nil {
		return err
	}
	if backup.Settings, err = s.exportSettings(); err != nil {
		return err
	}
	if backup.Rewards, err = s.exportRewards(); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported backup: %d users, %d children, %d lessons, %d progress records",
		len(backup.Users), len(backup.Children), len(backup.Lessons), len(backup.Progress))
	return nil
}

// Import reads a backup from r and inserts its rows, skipping any row whose
// primary key already exists
func (s *BackupService) Import(r io.Reader) error {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != backupVersion {
		return fmt.Errorf("unsupported backup version %d", backup.Version)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	imported := 0

	for _, u := range backup.Users {
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM users WHERE id = ?`,
			`INSERT INTO users (id, email, password_hash, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %s: %w", u.ID, err)
		}
		imported += n
	}

	for _, c := range backup.Children {
		var userID interface{}
		if c.UserID != "" {
			userID = c.UserID
		}
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM children WHERE id = ?`,
			`INSERT INTO children (id, user_id, name, hand_preference, computer_type, avatar, career, xp, current_streak, longest_streak, total_play_time, created_at, last_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.ID, userID, c.Name, c.HandPreference, c.ComputerType, c.Avatar, c.Career,
			c.XP, c.CurrentStreak, c.LongestStreak, c.TotalPlayTime, c.CreatedAt, c.LastActive)
		if err != nil {
			return fmt.Errorf("failed to import child %s: %w", c.ID, err)
		}
		imported += n
	}

	for _, l := range backup.Lessons {
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM lessons WHERE id = ?`,
			`INSERT INTO lessons (id, title, category, lesson_number, computer_type) VALUES (?, ?, ?, ?, ?)`,
			l.ID, l.ID, l.Title, l.Category, l.LessonNumber, l.ComputerType)
		if err != nil {
			return fmt.Errorf("failed to import lesson %s: %w", l.ID, err)
		}
		imported += n
	}

	for _, p := range backup.Progress {
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM progress WHERE id = ?`,
			`INSERT INTO progress (id, child_id, lesson_id, completed, score, attempts, time_spent, completed_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.ID, p.ChildID, p.LessonID, p.Completed, p.Score, p.Attempts, p.TimeSpent, p.CompletedAt, time.Now())
		if err != nil {
			return fmt.Errorf("failed to import progress record %s: %w", p.ID, err)
		}
		imported += n
	}

	for _, st := range backup.Settings {
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM settings WHERE child_id = ?`,
			`INSERT INTO settings (child_id, audio_enabled, text_size, difficulty, screen_time_limit, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			st.ChildID, st.ChildID, st.AudioEnabled, st.TextSize, st.Difficulty, st.ScreenTimeLimit, st.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import settings for child %s: %w", st.ChildID, err)
		}
		imported += n
	}

	for _, dr := range backup.Rewards {
		n, err := importRow(tx,
			`SELECT COUNT(*) FROM daily_rewards WHERE id = ?`,
			`INSERT INTO daily_rewards (id, child_id, reward_date, xp_earned, created_at) VALUES (?, ?, ?, ?, ?)`,
			dr.ID, dr.ID, dr.ChildID, dr.RewardDate, dr.XPEarned, dr.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import daily reward %s: %w", dr.ID, err)
		}
		imported += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported %d rows", imported)
	return nil
}

// importRow inserts one row unless its key already exists. The first arg
// after the queries is the existence-check key; the rest are insert values.
func importRow(tx *database.Tx, checkQuery, insertQuery string, key interface{}, args ...interface{}) (int, error) {
	var count int
	if err := tx.QueryRow(checkQuery, key).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	if _, err := tx.Exec(insertQuery, args...); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *BackupService) exportUsers() ([]backupUser, error) {
	rows, err := s.db.Query(`SELECT id, email, password_hash, name, created_at, updated_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	defer rows.Close()

	var users []backupUser
	for rows.Next() {
		var u backupUser
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *BackupService) exportChildren() ([]models.ChildProfile, error) {
	rows, err := s.db.Query(`SELECT id, user_id, name, hand_preference, computer_type, avatar, career, xp, current_streak, longest_streak, total_play_time, created_at, last_active FROM children ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to export children: %w", err)
	}
	defer rows.Close()

	var children []models.ChildProfile
	for rows.Next() {
		var c models.ChildProfile
		var userID interface{}
		if err := rows.Scan(&c.ID, &userID, &c.Name, &c.HandPreference, &c.ComputerType, &c.Avatar, &c.Career,
			&c.XP, &c.CurrentStreak, &c.LongestStreak, &c.TotalPlayTime, &c.CreatedAt, &c.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		if id, ok := userID.(string); ok {
			c.UserID = id
		} else if id, ok := userID.([]byte); ok {
			c.UserID = string(id)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func (s *BackupService) exportLessons() ([]models.Lesson, error) {
	rows, err := s.db.Query(`SELECT id, title, category, lesson_number, computer_type FROM lessons ORDER BY category, lesson_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to export lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.ID, &l.Title, &l.Category, &l.LessonNumber, &l.ComputerType); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *BackupService) exportProgress() ([]models.ProgressRecord, error) {
	rows, err := s.db.Query(`SELECT id, child_id, lesson_id, completed, score, attempts, time_spent, completed_at FROM progress ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		var p models.ProgressRecord
		if err := rows.Scan(&p.ID, &p.ChildID, &p.LessonID, &p.Completed, &p.Score, &p.Attempts, &p.TimeSpent, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func (s *BackupService) exportSettings() ([]models.Settings, error) {
	rows, err := s.db.Query(`SELECT child_id, audio_enabled, text_size, difficulty, screen_time_limit, updated_at FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Settings
	for rows.Next() {
		var st models.Settings
		if err := rows.Scan(&st.ChildID, &st.AudioEnabled, &st.TextSize, &st.Difficulty, &st.ScreenTimeLimit, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settings: %w", err)
		}
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

func (s *BackupService) exportRewards() ([]models.DailyReward, error) {
	rows, err := s.db.Query(`SELECT id, child_id, reward_date, xp_earned, created_at FROM daily_rewards ORDER BY reward_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to export daily rewards: %w", err)
	}
	defer rows.Close()

	var rewards []models.DailyReward
	for rows.Next() {
		var dr models.DailyReward
		if err := rows.Scan(&dr.ID, &dr.ChildID, &dr.RewardDate, &dr.XPEarned, &dr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily reward: %w", err)
		}
		rewards = append(rewards, dr)
	}
	return rewards, rows.Err()
}
