package backend

import (
	"context"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/localstore"
	"clickstart/internal/models"
	"clickstart/internal/repository"
	"clickstart/internal/security"
	"clickstart/internal/validation"
)

// hostedSessionTTL is how long a hosted-backend session stays valid. Device
// sessions are long-lived so a reload keeps the user signed in.
const hostedSessionTTL = 30 * 24 * time.Hour

// Hosted is the hosted-database backend: the contract implemented as direct
// table reads and writes through the dialect layer.
type Hosted struct {
	db       *database.DB
	users    *repository.UserRepository
	children *repository.ChildRepository
	lessons  *repository.LessonRepository
	progress *repository.ProgressRepository
	settings *repository.SettingsRepository
	rewards  *repository.RewardRepository
	store    localstore.Store
}

// NewHosted creates the hosted-database backend over an open database
func NewHosted(db *database.DB, store localstore.Store) *Hosted {
	return &Hosted{
		db:       db,
		users:    repository.NewUserRepository(db),
		children: repository.NewChildRepository(db),
		lessons:  repository.NewLessonRepository(db),
		progress: repository.NewProgressRepository(db),
		settings: repository.NewSettingsRepository(db),
		rewards:  repository.NewRewardRepository(db),
		store:    store,
	}
}

// SignUp creates a parent account and starts a session for it
func (h *Hosted) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, &AuthError{Message: err.Error(), Err: err}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, &AuthError{Message: err.Error(), Err: err}
	}

	existing, err := h.users.GetUserByEmail(email)
	if err != nil {
		return nil, backendErrorf("failed to check existing account", err)
	}
	if existing != nil {
		return nil, authErrorf("email already taken")
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, backendErrorf("failed to hash password", err)
	}

	user, err := h.users.CreateUser(email, passwordHash, name)
	if err != nil {
		return nil, backendErrorf("failed to create account", err)
	}

	if err := h.startSession(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// SignIn authenticates a parent account and starts a session for it
func (h *Hosted) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := h.users.GetUserByEmail(email)
	if err != nil {
		return nil, backendErrorf("failed to look up account", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, authErrorf("invalid email or password")
	}

	if err := h.startSession(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUser resolves the principal of the stored session token
func (h *Hosted) CurrentUser(ctx context.Context) (*models.User, error) {
	token, ok := h.store.Get(localstore.KeyAuthToken)
	if !ok || token == "" {
		return nil, ErrNotAuthenticated
	}

	session, err := h.users.GetSession(token)
	if err != nil {
		return nil, backendErrorf("failed to look up session", err)
	}
	if session == nil || session.IsExpired() {
		// Stale token; forget it so the next bootstrap goes straight to
		// the guest path
		_ = h.store.Delete(localstore.KeyAuthToken)
		return nil, ErrNotAuthenticated
	}

	user, err := h.users.GetUserByID(session.UserID)
	if err != nil {
		return nil, backendErrorf("failed to look up account", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}

	return user, nil
}

// SignOut ends the current session and forgets the stored token
func (h *Hosted) SignOut(ctx context.Context) error {
	if token, ok := h.store.Get(localstore.KeyAuthToken); ok && token != "" {
		if err := h.users.DeleteSession(token); err != nil {
			return backendErrorf("failed to end session", err)
		}
	}
	return h.store.Delete(localstore.KeyAuthToken)
}

// ListChildren returns the child profiles owned by a parent account
func (h *Hosted) ListChildren(ctx context.Context, userID string) ([]models.ChildProfile, error) {
	children, err := h.children.GetUserChildren(userID)
	if err != nil {
		return nil, backendErrorf("failed to list children", err)
	}
	return children, nil
}

// CreateChild persists a child profile; a profile without a UserID becomes
// the device's guest child
func (h *Hosted) CreateChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
	if err := validation.ValidateChildName(child.Name); err != nil {
		return nil, backendErrorf(err.Error(), err)
	}

	created, err := h.children.CreateChild(child)
	if err != nil {
		return nil, backendErrorf("failed to create child", err)
	}

	if created.IsGuest() {
		if err := rememberGuest(h.store, created.ID); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// UpdateChild applies a partial update and returns the stored profile
func (h *Hosted) UpdateChild(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error) {
	child, err := h.children.UpdateChild(id, update)
	if err != nil {
		return nil, backendErrorf("failed to update child", err)
	}
	return child, nil
}

// ListLessons returns the catalog ordered by category then lesson number
func (h *Hosted) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	lessons, err := h.lessons.ListLessons()
	if err != nil {
		return nil, backendErrorf("failed to list lessons", err)
	}
	return lessons, nil
}

// GetProgress returns all progress records for a child
func (h *Hosted) GetProgress(ctx context.Context, childID string) ([]models.ProgressRecord, error) {
	records, err := h.progress.GetChildProgress(childID)
	if err != nil {
		return nil, backendErrorf("failed to get progress", err)
	}
	return records, nil
}

// SaveProgress upserts the record for (child, lesson)
func (h *Hosted) SaveProgress(ctx context.Context, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	record, err := h.progress.SaveProgress(childID, lessonID, save)
	if err != nil {
		return nil, backendErrorf("failed to save progress", err)
	}
	return record, nil
}

// GetSettings returns the child's settings, creating defaults on first access
func (h *Hosted) GetSettings(ctx context.Context, childID string) (*models.Settings, error) {
	settings, err := h.settings.GetOrCreate(childID)
	if err != nil {
		return nil, backendErrorf("failed to get settings", err)
	}
	return settings, nil
}

// UpdateSettings applies a partial update and returns the stored settings
func (h *Hosted) UpdateSettings(ctx context.Context, childID string, update models.SettingsUpdate) (*models.Settings, error) {
	settings, err := h.settings.Update(childID, update)
	if err != nil {
		return nil, backendErrorf("failed to update settings", err)
	}
	return settings, nil
}

// CheckDailyReward reports whether today's reward is still unclaimed
func (h *Hosted) CheckDailyReward(ctx context.Context, childID string) (bool, error) {
	claimed, err := h.rewards.HasClaimed(childID, models.Today())
	if err != nil {
		return false, backendErrorf("failed to check daily reward", err)
	}
	return !claimed, nil
}

// ClaimDailyReward claims today's reward for the child
func (h *Hosted) ClaimDailyReward(ctx context.Context, childID string) (*models.RewardClaim, error) {
	claim, err := h.rewards.Claim(childID, models.Today(), models.DailyRewardXP)
	if err != nil {
		return nil, backendErrorf("failed to claim daily reward", err)
	}
	return claim, nil
}

func (h *Hosted) startSession(userID string) error {
	token := security.GenerateToken()
	if _, err := h.users.CreateSession(token, userID, time.Now().Add(hostedSessionTTL)); err != nil {
		return backendErrorf("failed to create session", err)
	}
	if err := h.store.Set(localstore.KeyAuthToken, token); err != nil {
		return backendErrorf("failed to persist session token", err)
	}
	return nil
}

// rememberGuest records the guest child id as the device's recovery handle
func rememberGuest(store localstore.Store, childID string) error {
	if err := store.Set(localstore.KeyGuestChildID, childID); err != nil {
		return backendErrorf("failed to persist guest handle", err)
	}
	if err := store.Set(localstore.KeyGuestMode, "true"); err != nil {
		return backendErrorf("failed to persist guest flag", err)
	}
	return nil
}

var _ Backend = (*Hosted)(nil)
