package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clickstart/internal/database"
	"clickstart/internal/models"
	"clickstart/internal/repository"
	"clickstart/internal/service"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	authService := service.NewAuthService(userRepo, "test-secret", time.Hour)
	profileService := service.NewProfileService(childRepo, progressRepo, settingsRepo, rewardRepo)
	lessonService := service.NewLessonService(lessonRepo)
	emailService, err := service.NewEmailService("", "", "", "")
	if err != nil {
		t.Fatalf("failed to build email service: %v", err)
	}

	if err := lessonService.SeedDefaultLessons(); err != nil {
		t.Fatalf("failed to seed lessons: %v", err)
	}

	middleware := NewMiddleware(authService)
	authHandler := NewAuthHandler(authService, emailService)
	childHandler := NewChildHandler(profileService)
	lessonHandler := NewLessonHandler(lessonService)
	progressHandler := NewProgressHandler(profileService)
	settingsHandler := NewSettingsHandler(profileService)
	rewardHandler := NewRewardHandler(profileService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth", authHandler.Authenticate)
	mux.HandleFunc("GET /api/auth", middleware.RequireAuth(authHandler.CurrentUser))
	mux.HandleFunc("GET /api/children", middleware.RequireAuth(childHandler.List))
	mux.HandleFunc("POST /api/children", middleware.OptionalAuth(childHandler.Create))
	mux.HandleFunc("PUT /api/children", middleware.OptionalAuth(childHandler.Update))
	mux.HandleFunc("GET /api/lessons", lessonHandler.List)
	mux.HandleFunc("GET /api/progress", middleware.OptionalAuth(progressHandler.Get))
	mux.HandleFunc("POST /api/progress", middleware.OptionalAuth(progressHandler.Save))
	mux.HandleFunc("GET /api/settings", middleware.OptionalAuth(settingsHandler.Get))
	mux.HandleFunc("PUT /api/settings", middleware.OptionalAuth(settingsHandler.Update))
	mux.HandleFunc("GET /api/daily-rewards", middleware.OptionalAuth(rewardHandler.Check))
	mux.HandleFunc("POST /api/daily-rewards", middleware.OptionalAuth(rewardHandler.Claim))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	payload := map[string]json.RawMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func signUpTestUser(t *testing.T, baseURL, email string) string {
	t.Helper()

	resp, payload := doJSON(t, http.MethodPost, baseURL+"/api/auth?action=signup", "", map[string]string{
		"email":    email,
		"password": "secret123",
		"name":     "Pat",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}

	var token string
	if err := json.Unmarshal(payload["token"], &token); err != nil || token == "" {
		t.Fatalf("no token in signup response: %v", err)
	}
	return token
}

func createChildViaAPI(t *testing.T, baseURL, token, name string) models.ChildProfile {
	t.Helper()

	resp, payload := doJSON(t, http.MethodPost, baseURL+"/api/children", token, map[string]string{
		"name":            name,
		"hand_preference": "left",
		"computer_type":   "laptop",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create child status = %d", resp.StatusCode)
	}

	var child models.ChildProfile
	if err := json.Unmarshal(payload["child"], &child); err != nil {
		t.Fatalf("failed to decode child: %v", err)
	}
	return child
}

func TestAPISignUpAndCurrentUser(t *testing.T) {
	server := newTestAPI(t)
	token := signUpTestUser(t, server.URL, "parent@example.com")

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/auth", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var user models.User
	if err := json.Unmarshal(payload["user"], &user); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if user.Email != "parent@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	// Duplicate registration conflicts
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/auth?action=signup", "", map[string]string{
		"email": "parent@example.com", "password": "secret123", "name": "Pat",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", resp.StatusCode)
	}

	// Wrong password is unauthorized
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/auth?action=signin", "", map[string]string{
		"email": "parent@example.com", "password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad signin status = %d, want 401", resp.StatusCode)
	}

	// No token is unauthorized
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/auth", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
}

func TestAPIGuestChildWithoutToken(t *testing.T) {
	server := newTestAPI(t)

	child := createChildViaAPI(t, server.URL, "", "Maya")
	if !child.IsGuest() {
		t.Error("a child created without a token must be a guest")
	}

	// Guest children are reachable anonymously
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/settings?child_id="+child.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("guest settings status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIChildOwnership(t *testing.T) {
	server := newTestAPI(t)

	ownerToken := signUpTestUser(t, server.URL, "owner@example.com")
	otherToken := signUpTestUser(t, server.URL, "other@example.com")

	child := createChildViaAPI(t, server.URL, ownerToken, "Maya")
	if child.IsGuest() {
		t.Fatal("child should belong to the owner")
	}

	update := map[string]int{"xp": 100}

	resp, _ := doJSON(t, http.MethodPut, server.URL+"/api/children?id="+child.ID, otherToken, update)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("other user's update status = %d, want 403", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPut, server.URL+"/api/children?id="+child.ID, "", update)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("anonymous update status = %d, want 403", resp.StatusCode)
	}

	resp, payload := doJSON(t, http.MethodPut, server.URL+"/api/children?id="+child.ID, ownerToken, update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner update status = %d", resp.StatusCode)
	}
	var updated models.ChildProfile
	if err := json.Unmarshal(payload["child"], &updated); err != nil {
		t.Fatalf("failed to decode child: %v", err)
	}
	if updated.XP != 100 {
		t.Errorf("xp = %d, want 100", updated.XP)
	}

	resp, _ = doJSON(t, http.MethodPut, server.URL+"/api/children?id=no-such-child", ownerToken, update)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing child status = %d, want 404", resp.StatusCode)
	}
}

func TestAPIProgressRoundTrip(t *testing.T) {
	server := newTestAPI(t)
	child := createChildViaAPI(t, server.URL, "", "Maya")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/progress", "", map[string]interface{}{
		"child_id":   child.ID,
		"lesson_id":  "keyboard-01",
		"completed":  true,
		"score":      85,
		"time_spent": 140,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save progress status = %d", resp.StatusCode)
	}

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/progress?child_id="+child.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get progress status = %d", resp.StatusCode)
	}

	var records []models.ProgressRecord
	if err := json.Unmarshal(payload["progress"], &records); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}
	if len(records) != 1 || !records[0].Completed || records[0].Score != 85 {
		t.Errorf("records = %+v", records)
	}
}

func TestAPIDailyRewardClaimConflict(t *testing.T) {
	server := newTestAPI(t)
	child := createChildViaAPI(t, server.URL, "", "Maya")

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/daily-rewards?child_id="+child.ID+"&action=check", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check status = %d", resp.StatusCode)
	}
	var available bool
	if err := json.Unmarshal(payload["available"], &available); err != nil || !available {
		t.Fatalf("available = %v, %v", available, err)
	}

	claimBody := map[string]string{"child_id": child.ID}

	resp, payload = doJSON(t, http.MethodPost, server.URL+"/api/daily-rewards", "", claimBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d", resp.StatusCode)
	}
	var xpEarned int
	if err := json.Unmarshal(payload["xp_earned"], &xpEarned); err != nil || xpEarned != models.DailyRewardXP {
		t.Errorf("xp_earned = %d, want %d", xpEarned, models.DailyRewardXP)
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/daily-rewards", "", claimBody)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second claim status = %d, want 409", resp.StatusCode)
	}
}

func TestAPILessonCatalog(t *testing.T) {
	server := newTestAPI(t)

	resp, payload := doJSON(t, http.MethodGet, server.URL+"/api/lessons", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var lessons []models.Lesson
	if err := json.Unmarshal(payload["lessons"], &lessons); err != nil {
		t.Fatalf("failed to decode lessons: %v", err)
	}
	if len(lessons) == 0 {
		t.Fatal("seeded catalog should not be empty")
	}

	// Ordered by category, then lesson number
	for i := 1; i < len(lessons); i++ {
		prev, cur := lessons[i-1], lessons[i]
		if prev.Category == cur.Category && prev.LessonNumber > cur.LessonNumber {
			t.Errorf("lessons out of order: %s #%d before %s #%d",
				prev.Category, prev.LessonNumber, cur.Category, cur.LessonNumber)
		}
	}
}
