// Package backend defines the persistence contract of the sync core and its
// two interchangeable implementations: a REST-style adapter talking to the
// ClickStart API, and a hosted-database adapter working directly against the
// application tables. The implementation is chosen once at startup; callers
// never branch on the backend kind.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clickstart/internal/config"
	"clickstart/internal/database"
	"clickstart/internal/localstore"
	"clickstart/internal/models"
)

// Backend is the uniform persistence contract. Every operation returns a
// typed result or a tagged error (*AuthError, *BackendError,
// ErrNotAuthenticated); a missing single record is (nil, nil), not an error.
type Backend interface {
	// SignUp creates a parent account and starts a session for it
	SignUp(ctx context.Context, email, password, name string) (*models.User, error)

	// SignIn authenticates a parent account and starts a session for it
	SignIn(ctx context.Context, email, password string) (*models.User, error)

	// CurrentUser resolves the principal of the stored session token.
	// Returns ErrNotAuthenticated when no valid token is stored.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SignOut ends the current session and forgets the stored token
	SignOut(ctx context.Context) error

	// ListChildren returns the child profiles owned by a parent account
	ListChildren(ctx context.Context, userID string) ([]models.ChildProfile, error)

	// CreateChild persists a child profile. A profile without a UserID is
	// guest-associated: its id is recorded in the local store as the
	// device's recovery handle.
	CreateChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error)

	// UpdateChild applies a partial update and returns the stored profile
	UpdateChild(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error)

	// ListLessons returns the catalog ordered by category then lesson number
	ListLessons(ctx context.Context) ([]models.Lesson, error)

	// GetProgress returns all progress records for a child
	GetProgress(ctx context.Context, childID string) ([]models.ProgressRecord, error)

	// SaveProgress upserts the record for (child, lesson)
	SaveProgress(ctx context.Context, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error)

	// GetSettings returns the child's settings, creating defaults on first access
	GetSettings(ctx context.Context, childID string) (*models.Settings, error)

	// UpdateSettings applies a partial update and returns the stored settings
	UpdateSettings(ctx context.Context, childID string, update models.SettingsUpdate) (*models.Settings, error)

	// CheckDailyReward reports whether today's reward is still unclaimed
	CheckDailyReward(ctx context.Context, childID string) (bool, error)

	// ClaimDailyReward claims today's reward: one claim per child per
	// calendar date, a fixed XP amount, and a streak that always moves
	// forward by one
	ClaimDailyReward(ctx context.Context, childID string) (*models.RewardClaim, error)
}

// Config selects and configures the backend implementation.
type Config struct {
	// Kind is "rest" or "hosted"
	Kind string

	// BaseURL of the ClickStart API, for the REST backend
	BaseURL string

	// Timeout for REST calls; zero means DefaultTimeout
	Timeout time.Duration

	// Database settings for the hosted backend
	DatabaseType   string
	DatabaseURL    string
	DatabasePath   string
	MigrationsPath string
}

// DefaultTimeout bounds REST calls when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// New builds the configured backend. The local store holds the device's
// durable identifiers (token, selected child, guest handle) for either kind.
func New(cfg Config, store localstore.Store) (Backend, error) {
	switch strings.ToLower(cfg.Kind) {
	case "rest", "api":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("rest backend requires a base URL")
		}
		return NewREST(cfg.BaseURL, cfg.Timeout, store), nil

	case "hosted", "database", "db":
		db, err := database.InitializeWithConfig(&config.Config{
			DatabaseType: cfg.DatabaseType,
			DatabaseURL:  cfg.DatabaseURL,
			DatabasePath: cfg.DatabasePath,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open hosted backend: %w", err)
		}
		if cfg.MigrationsPath != "" {
			if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
				return nil, fmt.Errorf("failed to migrate hosted backend: %w", err)
			}
		}
		return NewHosted(db, store), nil

	default:
		return nil, fmt.Errorf("unsupported backend kind: %s", cfg.Kind)
	}
}
