// Package session holds the client-side session state: who is signed in,
// which child is active, and whether the device is in guest mode. The store
// is the single writer of session keys in the local store and the single
// source of truth for the UI's view of the world.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"clickstart/internal/backend"
	"clickstart/internal/localstore"
	"clickstart/internal/models"
)

var (
	ErrNoUser          = errors.New("no signed-in user")
	ErrNoSelectedChild = errors.New("no selected child")
	ErrNegativeXP      = errors.New("xp amount must be non-negative")
)

// Refresher is a per-child cache that must be reloaded whenever the active
// child changes. The progress tracker and the reward engine implement it.
type Refresher interface {
	Refresh(ctx context.Context, childID string) error
}

// Snapshot is an immutable copy of the session state handed to subscribers
type Snapshot struct {
	User          *models.User
	GuestMode     bool
	Children      []models.ChildProfile
	SelectedChild *models.ChildProfile
}

// Store coordinates authentication state, child selection and guest mode on
// top of a backend. Safe for concurrent use.
type Store struct {
	backend backend.Backend
	local   localstore.Store

	mu        sync.RWMutex
	user      *models.User
	guestMode bool
	children  []models.ChildProfile
	selected  *models.ChildProfile

	refreshers  []Refresher
	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewStore creates a session store over a backend and the device store
func NewStore(b backend.Backend, local localstore.Store) *Store {
	return &Store{
		backend:     b,
		local:       local,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// AttachRefresher registers a cache to reload on every child selection.
// Attach before Bootstrap.
func (s *Store) AttachRefresher(r Refresher) {
	s.refreshers = append(s.refreshers, r)
}

// Subscribe registers a callback invoked with a snapshot after every state
// change. Returns an unsubscribe function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subscribers, id)
	}
}

// Snapshot returns a copy of the current session state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Bootstrap restores session state from the local store: a stored bearer
// token first, then guest mode. Lookup failures degrade to an anonymous
// session instead of failing startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	user, err := s.backend.CurrentUser(ctx)
	if err != nil {
		if !errors.Is(err, backend.ErrNotAuthenticated) {
			log.Printf("Session bootstrap: principal lookup failed: %v", err)
		}
		return s.bootstrapWithoutPrincipal(ctx)
	}

	children, err := s.backend.ListChildren(ctx, user.ID)
	if err != nil {
		log.Printf("Session bootstrap: child list failed, starting anonymous: %v", err)
		s.notify()
		return nil
	}

	// A resolvable principal wins over any lingering guest state
	s.forgetGuestKeys()

	s.mu.Lock()
	s.user = user
	s.children = children
	s.mu.Unlock()

	if selectedID, ok := s.local.Get(localstore.KeySelectedChildID); ok {
		if err := s.SelectChild(ctx, selectedID); err == nil {
			return nil
		}
		// Stale selection; drop it and stay signed in
		_ = s.local.Delete(localstore.KeySelectedChildID)
	}

	s.notify()
	return nil
}

// bootstrapWithoutPrincipal falls back to stored guest state, or an
// anonymous session when none is usable
func (s *Store) bootstrapWithoutPrincipal(ctx context.Context) error {
	if mode, _ := s.local.Get(localstore.KeyGuestMode); mode == "true" {
		if s.restoreGuest(ctx) {
			s.notify()
			return nil
		}
		s.forgetGuestKeys()
	}
	s.notify()
	return nil
}

// SignUp creates an account, leaves guest mode and loads the (empty) child
// list
func (s *Store) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	user, err := s.backend.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return user, s.enterAuthenticated(ctx, user)
}

// SignIn authenticates and loads the account's children
func (s *Store) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return user, s.enterAuthenticated(ctx, user)
}

// SignOut ends the session and wipes the device's entire session footprint
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.backend.SignOut(ctx); err != nil {
		return err
	}

	_ = s.local.Delete(localstore.KeySelectedChildID)
	s.forgetGuestKeys()

	s.mu.Lock()
	s.user = nil
	s.guestMode = false
	s.children = nil
	s.selected = nil
	s.mu.Unlock()

	s.notify()
	return nil
}

// SelectChild makes a child active, persists the selection and reloads every
// attached per-child cache
func (s *Store) SelectChild(ctx context.Context, childID string) error {
	s.mu.Lock()
	var found *models.ChildProfile
	for i := range s.children {
		if s.children[i].ID == childID {
			found = &s.children[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return fmt.Errorf("child %s not in session", childID)
	}
	selected := *found
	s.selected = &selected
	s.mu.Unlock()

	if err := s.local.Set(localstore.KeySelectedChildID, childID); err != nil {
		return err
	}

	for _, r := range s.refreshers {
		if err := r.Refresh(ctx, childID); err != nil {
			return fmt.Errorf("failed to refresh child caches: %w", err)
		}
	}

	s.notify()
	return nil
}

// CreateChild adds a child to the signed-in account
func (s *Store) CreateChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()
	if user == nil {
		return nil, ErrNoUser
	}

	child.UserID = user.ID
	created, err := s.backend.CreateChild(ctx, child)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.children = append(s.children, *created)
	s.mu.Unlock()

	s.notify()
	return created, nil
}

// CreateGuestChild creates a local-only guest profile so a child can play
// without an account. The profile is offered to the backend so progress can
// be kept, but a backend failure does not fail guest creation.
func (s *Store) CreateGuestChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
	child.ID = uuid.New().String()
	child.UserID = ""

	// Entering guest mode supersedes any signed-in session on the device
	_ = s.local.Delete(localstore.KeyAuthToken)

	if created, err := s.backend.CreateChild(ctx, child); err != nil {
		log.Printf("Guest profile not persisted to backend, continuing locally: %v", err)
		if err := s.rememberGuestLocally(child.ID); err != nil {
			return nil, err
		}
	} else {
		child = created
	}

	if err := s.persistGuestProfile(child); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = nil
	s.guestMode = true
	s.children = []models.ChildProfile{*child}
	selected := *child
	s.selected = &selected
	s.mu.Unlock()

	if err := s.local.Set(localstore.KeySelectedChildID, child.ID); err != nil {
		return nil, err
	}

	for _, r := range s.refreshers {
		if err := r.Refresh(ctx, child.ID); err != nil {
			log.Printf("Guest child cache refresh failed: %v", err)
			break
		}
	}

	s.notify()
	return child, nil
}

// AddXP grants XP to the selected child and applies the stored result.
// Amounts must be non-negative so a child's XP never decreases.
func (s *Store) AddXP(ctx context.Context, amount int) (*models.ChildProfile, error) {
	if amount < 0 {
		return nil, ErrNegativeXP
	}

	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()
	if selected == nil {
		return nil, ErrNoSelectedChild
	}

	newXP := selected.XP + amount
	return s.updateSelected(ctx, models.ChildUpdate{XP: &newXP})
}

// RecordPlayTime adds seconds of play to the selected child
func (s *Store) RecordPlayTime(ctx context.Context, seconds int) (*models.ChildProfile, error) {
	s.mu.RLock()
	selected := s.selected
	s.mu.RUnlock()
	if selected == nil {
		return nil, ErrNoSelectedChild
	}

	total := selected.TotalPlayTime + seconds
	return s.updateSelected(ctx, models.ChildUpdate{TotalPlayTime: &total})
}

// UpdateSelectedChild applies a partial update to the selected child
func (s *Store) UpdateSelectedChild(ctx context.Context, update models.ChildUpdate) (*models.ChildProfile, error) {
	s.mu.RLock()
	if s.selected == nil {
		s.mu.RUnlock()
		return nil, ErrNoSelectedChild
	}
	s.mu.RUnlock()
	return s.updateSelected(ctx, update)
}

// ApplyRewardClaim folds a claim result into the selected child's state. The
// backend already granted the XP; this only updates the session's view.
func (s *Store) ApplyRewardClaim(claim *models.RewardClaim) {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return
	}

	s.selected.XP += claim.XPEarned
	s.selected.CurrentStreak = claim.NewStreak
	if claim.NewStreak > s.selected.LongestStreak {
		s.selected.LongestStreak = claim.NewStreak
	}
	s.syncSelectedIntoListLocked()
	guest := s.guestMode
	selected := *s.selected
	s.mu.Unlock()

	if guest {
		if err := s.persistGuestProfile(&selected); err != nil {
			log.Printf("Failed to persist guest profile: %v", err)
		}
	}

	s.notify()
}

// updateSelected pushes an update to the backend and replaces the session's
// copy with the server-confirmed profile
func (s *Store) updateSelected(ctx context.Context, update models.ChildUpdate) (*models.ChildProfile, error) {
	s.mu.RLock()
	selected := s.selected
	guest := s.guestMode
	s.mu.RUnlock()
	if selected == nil {
		return nil, ErrNoSelectedChild
	}

	updated, err := s.backend.UpdateChild(ctx, selected.ID, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("child %s no longer exists", selected.ID)
	}

	s.mu.Lock()
	sel := *updated
	s.selected = &sel
	s.syncSelectedIntoListLocked()
	s.mu.Unlock()

	if guest {
		if err := s.persistGuestProfile(updated); err != nil {
			return nil, err
		}
	}

	s.notify()
	return updated, nil
}

// enterAuthenticated switches the session from anonymous or guest to the
// given user, reselecting the previously selected child when it still
// belongs to the account and defaulting to the first child otherwise
func (s *Store) enterAuthenticated(ctx context.Context, user *models.User) error {
	s.forgetGuestKeys()

	children, err := s.backend.ListChildren(ctx, user.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.guestMode = false
	s.children = children
	s.selected = nil
	s.mu.Unlock()

	if len(children) == 0 {
		_ = s.local.Delete(localstore.KeySelectedChildID)
		s.notify()
		return nil
	}

	target := children[0].ID
	if persisted, ok := s.local.Get(localstore.KeySelectedChildID); ok {
		for i := range children {
			if children[i].ID == persisted {
				target = persisted
				break
			}
		}
	}
	return s.SelectChild(ctx, target)
}

// restoreGuest rebuilds guest state from the serialized local profile.
// Returns false when the stored state is missing or corrupt.
func (s *Store) restoreGuest(ctx context.Context) bool {
	raw, ok := s.local.Get(localstore.KeyGuestProfile)
	if !ok {
		return false
	}

	var child models.ChildProfile
	if err := json.Unmarshal([]byte(raw), &child); err != nil {
		log.Printf("Session bootstrap: stored guest profile is corrupt: %v", err)
		return false
	}

	s.mu.Lock()
	s.guestMode = true
	s.children = []models.ChildProfile{child}
	selected := child
	s.selected = &selected
	s.mu.Unlock()

	for _, r := range s.refreshers {
		if err := r.Refresh(ctx, child.ID); err != nil {
			log.Printf("Guest child cache refresh failed: %v", err)
			break
		}
	}

	return true
}

func (s *Store) persistGuestProfile(child *models.ChildProfile) error {
	raw, err := json.Marshal(child)
	if err != nil {
		return err
	}
	return s.local.Set(localstore.KeyGuestProfile, string(raw))
}

func (s *Store) rememberGuestLocally(childID string) error {
	if err := s.local.Set(localstore.KeyGuestChildID, childID); err != nil {
		return err
	}
	return s.local.Set(localstore.KeyGuestMode, "true")
}

func (s *Store) forgetGuestKeys() {
	_ = s.local.Delete(localstore.KeyGuestChildID)
	_ = s.local.Delete(localstore.KeyGuestMode)
	_ = s.local.Delete(localstore.KeyGuestProfile)
}

// syncSelectedIntoListLocked mirrors the selected child back into the child
// list. Called with the lock held.
func (s *Store) syncSelectedIntoListLocked() {
	if s.selected == nil {
		return
	}
	for i := range s.children {
		if s.children[i].ID == s.selected.ID {
			s.children[i] = *s.selected
			return
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		User:      s.user,
		GuestMode: s.guestMode,
	}
	if len(s.children) > 0 {
		snap.Children = make([]models.ChildProfile, len(s.children))
		copy(snap.Children, s.children)
	}
	if s.selected != nil {
		selected := *s.selected
		snap.SelectedChild = &selected
	}
	return snap
}

func (s *Store) notify() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
