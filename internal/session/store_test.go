package session

import (
	"context"
	"errors"
	"testing"

	"clickstart/internal/backend"
	"clickstart/internal/localstore"
	"clickstart/internal/models"
)

// fakeBackend lets each test script the calls it cares about; everything
// else fails loudly so tests notice unexpected traffic.
type fakeBackend struct {
	t *testing.T

	currentUserFn func(ctx context.Context) (*models.User, error)
	listFn        func(ctx context.Context, userID string) ([]models.ChildProfile, error)
	createFn      func(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error)
	updateFn      func(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error)
	signOutFn     func(ctx context.Context) error
}

func newFakeBackend(t *testing.T) *fakeBackend {
	return &fakeBackend{t: t}
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	return &models.User{ID: "u1", Email: email, Name: name}, nil
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.currentUserFn == nil {
		return nil, backend.ErrNotAuthenticated
	}
	return f.currentUserFn(ctx)
}

func (f *fakeBackend) SignOut(ctx context.Context) error {
	if f.signOutFn == nil {
		return nil
	}
	return f.signOutFn(ctx)
}

func (f *fakeBackend) ListChildren(ctx context.Context, userID string) ([]models.ChildProfile, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, userID)
}

func (f *fakeBackend) CreateChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
	if f.createFn == nil {
		copied := *child
		return &copied, nil
	}
	return f.createFn(ctx, child)
}

func (f *fakeBackend) UpdateChild(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error) {
	if f.updateFn == nil {
		f.t.Fatal("unexpected UpdateChild call")
	}
	return f.updateFn(ctx, id, update)
}

func (f *fakeBackend) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	f.t.Fatal("unexpected ListLessons call")
	return nil, nil
}

func (f *fakeBackend) GetProgress(ctx context.Context, childID string) ([]models.ProgressRecord, error) {
	return nil, nil
}

func (f *fakeBackend) SaveProgress(ctx context.Context, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	f.t.Fatal("unexpected SaveProgress call")
	return nil, nil
}

func (f *fakeBackend) GetSettings(ctx context.Context, childID string) (*models.Settings, error) {
	f.t.Fatal("unexpected GetSettings call")
	return nil, nil
}

func (f *fakeBackend) UpdateSettings(ctx context.Context, childID string, update models.SettingsUpdate) (*models.Settings, error) {
	f.t.Fatal("unexpected UpdateSettings call")
	return nil, nil
}

func (f *fakeBackend) CheckDailyReward(ctx context.Context, childID string) (bool, error) {
	return true, nil
}

func (f *fakeBackend) ClaimDailyReward(ctx context.Context, childID string) (*models.RewardClaim, error) {
	f.t.Fatal("unexpected ClaimDailyReward call")
	return nil, nil
}

var _ backend.Backend = (*fakeBackend)(nil)

// recordingRefresher remembers every child it was asked to load
type recordingRefresher struct {
	childIDs []string
	err      error
}

func (r *recordingRefresher) Refresh(ctx context.Context, childID string) error {
	r.childIDs = append(r.childIDs, childID)
	return r.err
}

func TestBootstrapAnonymous(t *testing.T) {
	store := NewStore(newFakeBackend(t), localstore.NewMemory())

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if snap.User != nil || snap.GuestMode || snap.SelectedChild != nil {
		t.Errorf("snapshot = %+v, want anonymous", snap)
	}
}

func TestBootstrapSwallowsLookupErrors(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return nil, &backend.BackendError{Message: "backend down"}
	}
	store := NewStore(fake, localstore.NewMemory())

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap must degrade to anonymous, got %v", err)
	}
	if snap := store.Snapshot(); snap.User != nil {
		t.Error("expected anonymous session after a failed lookup")
	}
}

func TestBootstrapRestoresSelection(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{
			{ID: "c1", UserID: "u1", Name: "Maya"},
			{ID: "c2", UserID: "u1", Name: "Ben"},
		}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeyAuthToken, "tok")
	local.Set(localstore.KeySelectedChildID, "c2")

	refresher := &recordingRefresher{}
	store := NewStore(fake, local)
	store.AttachRefresher(refresher)

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if snap.User == nil || snap.User.ID != "u1" {
		t.Fatalf("user = %+v, want u1", snap.User)
	}
	if snap.SelectedChild == nil || snap.SelectedChild.ID != "c2" {
		t.Errorf("selected = %+v, want c2", snap.SelectedChild)
	}
	if len(refresher.childIDs) != 1 || refresher.childIDs[0] != "c2" {
		t.Errorf("refreshed = %v, want [c2]", refresher.childIDs)
	}
}

func TestBootstrapDropsStaleSelection(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1"}}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeySelectedChildID, "deleted-child")

	store := NewStore(fake, local)
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if snap := store.Snapshot(); snap.SelectedChild != nil {
		t.Errorf("selected = %+v, want none", snap.SelectedChild)
	}
	if _, ok := local.Get(localstore.KeySelectedChildID); ok {
		t.Error("stale selection should have been dropped from the local store")
	}
}

func TestBootstrapGuest(t *testing.T) {
	local := localstore.NewMemory()
	local.Set(localstore.KeyGuestMode, "true")
	local.Set(localstore.KeyGuestChildID, "g1")
	local.Set(localstore.KeyGuestProfile, `{"id":"g1","name":"Maya","xp":120}`)

	refresher := &recordingRefresher{}
	store := NewStore(newFakeBackend(t), local)
	store.AttachRefresher(refresher)

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if !snap.GuestMode {
		t.Fatal("expected guest mode")
	}
	if snap.SelectedChild == nil || snap.SelectedChild.ID != "g1" || snap.SelectedChild.XP != 120 {
		t.Errorf("selected = %+v, want guest g1 with 120 xp", snap.SelectedChild)
	}
	if len(refresher.childIDs) != 1 || refresher.childIDs[0] != "g1" {
		t.Errorf("refreshed = %v, want [g1]", refresher.childIDs)
	}
}

func TestSignOutClearsFootprint(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1"}}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeySelectedChildID, "c1")
	local.Set(localstore.KeyGuestChildID, "old-guest")
	local.Set(localstore.KeyGuestProfile, "{}")

	store := NewStore(fake, local)
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if err := store.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	for _, key := range []string{
		localstore.KeySelectedChildID,
		localstore.KeyGuestChildID,
		localstore.KeyGuestMode,
		localstore.KeyGuestProfile,
	} {
		if _, ok := local.Get(key); ok {
			t.Errorf("key %s should be cleared on sign-out", key)
		}
	}

	if snap := store.Snapshot(); snap.User != nil || snap.SelectedChild != nil || len(snap.Children) != 0 {
		t.Errorf("snapshot = %+v, want empty", snap)
	}
}

func TestSelectChildPersistsAndRefreshes(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1"}, {ID: "c2", UserID: "u1"}}, nil
	}

	local := localstore.NewMemory()
	refresher := &recordingRefresher{}
	store := NewStore(fake, local)
	store.AttachRefresher(refresher)

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	if err := store.SelectChild(context.Background(), "c1"); err != nil {
		t.Fatalf("SelectChild failed: %v", err)
	}
	if id, _ := local.Get(localstore.KeySelectedChildID); id != "c1" {
		t.Errorf("persisted selection = %q, want c1", id)
	}
	if len(refresher.childIDs) != 1 || refresher.childIDs[0] != "c1" {
		t.Errorf("refreshed = %v, want [c1]", refresher.childIDs)
	}

	if err := store.SelectChild(context.Background(), "unknown"); err == nil {
		t.Error("selecting an unknown child must fail")
	}
}

func TestCreateGuestChildSurvivesBackendFailure(t *testing.T) {
	fake := newFakeBackend(t)
	fake.createFn = func(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
		return nil, &backend.BackendError{Message: "backend down"}
	}

	local := localstore.NewMemory()
	store := NewStore(fake, local)

	child, err := store.CreateGuestChild(context.Background(), &models.ChildProfile{Name: "Maya"})
	if err != nil {
		t.Fatalf("CreateGuestChild must succeed locally, got %v", err)
	}
	if child.ID == "" {
		t.Fatal("guest child needs a locally assigned id")
	}

	if mode, _ := local.Get(localstore.KeyGuestMode); mode != "true" {
		t.Errorf("guest mode = %q, want true", mode)
	}
	if _, ok := local.Get(localstore.KeyGuestProfile); !ok {
		t.Error("guest profile should be persisted locally")
	}

	snap := store.Snapshot()
	if !snap.GuestMode || snap.SelectedChild == nil || snap.SelectedChild.ID != child.ID {
		t.Errorf("snapshot = %+v, want guest session with the new child selected", snap)
	}
}

func TestAddXPAppliesServerState(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1", XP: 90}}, nil
	}
	fake.updateFn = func(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error) {
		if update.XP == nil || *update.XP != 115 {
			t.Errorf("update.XP = %v, want 115", update.XP)
		}
		// The server may know better than the session's arithmetic
		return &models.ChildProfile{ID: "c1", UserID: "u1", XP: 120}, nil
	}

	store := NewStore(fake, localstore.NewMemory())
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if err := store.SelectChild(context.Background(), "c1"); err != nil {
		t.Fatalf("SelectChild failed: %v", err)
	}

	updated, err := store.AddXP(context.Background(), 25)
	if err != nil {
		t.Fatalf("AddXP failed: %v", err)
	}
	if updated.XP != 120 {
		t.Errorf("xp = %d, want the server-confirmed 120", updated.XP)
	}
	if snap := store.Snapshot(); snap.SelectedChild.XP != 120 || snap.Children[0].XP != 120 {
		t.Error("server-confirmed state must flow into the snapshot and child list")
	}
}

func TestApplyRewardClaim(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1", XP: 40, CurrentStreak: 2, LongestStreak: 6}}, nil
	}

	store := NewStore(fake, localstore.NewMemory())
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if err := store.SelectChild(context.Background(), "c1"); err != nil {
		t.Fatalf("SelectChild failed: %v", err)
	}

	store.ApplyRewardClaim(&models.RewardClaim{XPEarned: 50, NewStreak: 3})

	snap := store.Snapshot()
	if snap.SelectedChild.XP != 90 {
		t.Errorf("xp = %d, want 90", snap.SelectedChild.XP)
	}
	if snap.SelectedChild.CurrentStreak != 3 {
		t.Errorf("streak = %d, want 3", snap.SelectedChild.CurrentStreak)
	}
	if snap.SelectedChild.LongestStreak != 6 {
		t.Errorf("longest = %d, a shorter streak must not lower it", snap.SelectedChild.LongestStreak)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	store := NewStore(newFakeBackend(t), localstore.NewMemory())

	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if calls == 0 {
		t.Fatal("subscriber should fire on bootstrap")
	}

	before := calls
	unsubscribe()
	if _, err := store.SignUp(context.Background(), "p@example.com", "secret123", "Pat"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if calls != before {
		t.Error("unsubscribed callback must not fire")
	}
}

func TestSignInReselectsPersistedChild(t *testing.T) {
	fake := newFakeBackend(t)
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{
			{ID: "c1", UserID: "u1", Name: "Maya"},
			{ID: "c2", UserID: "u1", Name: "Ben"},
		}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeySelectedChildID, "c2")

	refresher := &recordingRefresher{}
	store := NewStore(fake, local)
	store.AttachRefresher(refresher)

	if _, err := store.SignIn(context.Background(), "p@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	snap := store.Snapshot()
	if snap.SelectedChild == nil || snap.SelectedChild.ID != "c2" {
		t.Fatalf("selected = %+v, want the previously selected c2", snap.SelectedChild)
	}
	if len(refresher.childIDs) != 1 || refresher.childIDs[0] != "c2" {
		t.Errorf("refreshed = %v, want [c2]", refresher.childIDs)
	}
	if id, _ := local.Get(localstore.KeySelectedChildID); id != "c2" {
		t.Errorf("persisted selection = %q, want c2", id)
	}
}

func TestSignInDefaultsToFirstChild(t *testing.T) {
	fake := newFakeBackend(t)
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1"}, {ID: "c2", UserID: "u1"}}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeySelectedChildID, "someone-elses-child")

	refresher := &recordingRefresher{}
	store := NewStore(fake, local)
	store.AttachRefresher(refresher)

	if _, err := store.SignIn(context.Background(), "p@example.com", "secret123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if snap := store.Snapshot(); snap.SelectedChild == nil || snap.SelectedChild.ID != "c1" {
		t.Fatalf("selected = %+v, want the first child c1", snap.SelectedChild)
	}
	if len(refresher.childIDs) != 1 || refresher.childIDs[0] != "c1" {
		t.Errorf("refreshed = %v, want [c1]", refresher.childIDs)
	}
	if id, _ := local.Get(localstore.KeySelectedChildID); id != "c1" {
		t.Errorf("persisted selection = %q, want c1", id)
	}
}

func TestBootstrapPrefersSignedInUserOverGuest(t *testing.T) {
	fake := newFakeBackend(t)
	fake.currentUserFn = func(ctx context.Context) (*models.User, error) {
		return &models.User{ID: "u1"}, nil
	}
	fake.listFn = func(ctx context.Context, userID string) ([]models.ChildProfile, error) {
		return []models.ChildProfile{{ID: "c1", UserID: "u1"}}, nil
	}

	local := localstore.NewMemory()
	local.Set(localstore.KeyAuthToken, "tok")
	local.Set(localstore.KeyGuestMode, "true")
	local.Set(localstore.KeyGuestChildID, "g1")
	local.Set(localstore.KeyGuestProfile, `{"id":"g1","name":"Maya"}`)

	store := NewStore(fake, local)
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if snap.User == nil || snap.User.ID != "u1" {
		t.Fatalf("user = %+v, want u1", snap.User)
	}
	if snap.GuestMode {
		t.Error("a resolvable account must win over lingering guest state")
	}
	if _, ok := local.Get(localstore.KeyGuestMode); ok {
		t.Error("guest keys should be cleared when the account session is restored")
	}
}

func TestCreateGuestChildForgetsToken(t *testing.T) {
	local := localstore.NewMemory()
	local.Set(localstore.KeyAuthToken, "stale-token")

	store := NewStore(newFakeBackend(t), local)
	if _, err := store.CreateGuestChild(context.Background(), &models.ChildProfile{Name: "Maya"}); err != nil {
		t.Fatalf("CreateGuestChild failed: %v", err)
	}

	if _, ok := local.Get(localstore.KeyAuthToken); ok {
		t.Error("entering guest mode must drop the stored bearer token")
	}
	if snap := store.Snapshot(); !snap.GuestMode || snap.User != nil {
		t.Errorf("snapshot = %+v, want a guest session", snap)
	}
}

func TestAddXPRejectsNegativeAmount(t *testing.T) {
	store := NewStore(newFakeBackend(t), localstore.NewMemory())
	if _, err := store.AddXP(context.Background(), -5); !errors.Is(err, ErrNegativeXP) {
		t.Errorf("err = %v, want ErrNegativeXP", err)
	}
}

func TestAddXPWithoutSelection(t *testing.T) {
	store := NewStore(newFakeBackend(t), localstore.NewMemory())
	if _, err := store.AddXP(context.Background(), 10); !errors.Is(err, ErrNoSelectedChild) {
		t.Errorf("err = %v, want ErrNoSelectedChild", err)
	}
}
