package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"clickstart/internal/localstore"
	"clickstart/internal/models"
)

// errNotFound marks a 404 from the API. Single-record operations translate
// it to a nil result; elsewhere it surfaces as the BackendError wrapping it.
var errNotFound = errors.New("not found")

// REST is the REST-style backend: a stateless HTTP API with a bearer token
// persisted in the device's local store.
type REST struct {
	baseURL string
	client  *http.Client
	store   localstore.Store
}

// NewREST creates the REST backend for the API at baseURL
func NewREST(baseURL string, timeout time.Duration, store localstore.Store) *REST {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		store:   store,
	}
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

type childrenResponse struct {
	Children []models.ChildProfile `json:"children"`
}

type childResponse struct {
	Child *models.ChildProfile `json:"child"`
}

type lessonsResponse struct {
	Lessons []models.Lesson `json:"lessons"`
}

type progressListResponse struct {
	Progress []models.ProgressRecord `json:"progress"`
}

type progressResponse struct {
	Record *models.ProgressRecord `json:"record"`
}

type settingsResponse struct {
	Settings *models.Settings `json:"settings"`
}

type rewardCheckResponse struct {
	Available bool `json:"available"`
}

// SignUp creates a parent account and stores the returned bearer token
func (r *REST) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	var resp authResponse
	if err := r.do(ctx, http.MethodPost, "auth", url.Values{"action": {"signup"}}, body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.Token == "" {
		return nil, backendErrorf("unexpected sign-up response", nil)
	}
	if err := r.store.Set(localstore.KeyAuthToken, resp.Token); err != nil {
		return nil, backendErrorf("failed to persist session token", err)
	}
	return resp.User, nil
}

// SignIn authenticates a parent account and stores the returned bearer token
func (r *REST) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := r.do(ctx, http.MethodPost, "auth", url.Values{"action": {"signin"}}, body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.Token == "" {
		return nil, backendErrorf("unexpected sign-in response", nil)
	}
	if err := r.store.Set(localstore.KeyAuthToken, resp.Token); err != nil {
		return nil, backendErrorf("failed to persist session token", err)
	}
	return resp.User, nil
}

// CurrentUser resolves the principal of the stored bearer token
func (r *REST) CurrentUser(ctx context.Context) (*models.User, error) {
	token, ok := r.store.Get(localstore.KeyAuthToken)
	if !ok || token == "" {
		return nil, ErrNotAuthenticated
	}

	var resp authResponse
	err := r.do(ctx, http.MethodGet, "auth", nil, nil, &resp)
	if IsAuthError(err) {
		// The server no longer accepts the token; forget it
		_ = r.store.Delete(localstore.KeyAuthToken)
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrNotAuthenticated
	}

	return resp.User, nil
}

// SignOut forgets the stored bearer token. The token itself is stateless, so
// discarding it is the whole sign-out.
func (r *REST) SignOut(ctx context.Context) error {
	return r.store.Delete(localstore.KeyAuthToken)
}

// ListChildren returns the children of the authenticated account. The token
// identifies the account; userID is part of the uniform contract and the
// server rejects a mismatch.
func (r *REST) ListChildren(ctx context.Context, userID string) ([]models.ChildProfile, error) {
	var resp childrenResponse
	if err := r.do(ctx, http.MethodGet, "children", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Children, nil
}

// CreateChild persists a child profile; without a bearer token the server
// creates a guest-associated record
func (r *REST) CreateChild(ctx context.Context, child *models.ChildProfile) (*models.ChildProfile, error) {
	var resp childResponse
	if err := r.do(ctx, http.MethodPost, "children", nil, child, &resp); err != nil {
		return nil, err
	}
	if resp.Child == nil {
		return nil, backendErrorf("unexpected create-child response", nil)
	}
	if resp.Child.IsGuest() {
		if err := rememberGuest(r.store, resp.Child.ID); err != nil {
			return nil, err
		}
	}
	return resp.Child, nil
}

// UpdateChild applies a partial update and returns the stored profile
func (r *REST) UpdateChild(ctx context.Context, id string, update models.ChildUpdate) (*models.ChildProfile, error) {
	var resp childResponse
	err := r.do(ctx, http.MethodPut, "children", url.Values{"id": {id}}, update, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Child, nil
}

// ListLessons returns the catalog ordered by category then lesson number
func (r *REST) ListLessons(ctx context.Context) ([]models.Lesson, error) {
	var resp lessonsResponse
	if err := r.do(ctx, http.MethodGet, "lessons", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lessons, nil
}

// GetProgress returns all progress records for a child
func (r *REST) GetProgress(ctx context.Context, childID string) ([]models.ProgressRecord, error) {
	var resp progressListResponse
	err := r.do(ctx, http.MethodGet, "progress", url.Values{"child_id": {childID}}, nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Progress, nil
}

// SaveProgress upserts the record for (child, lesson)
func (r *REST) SaveProgress(ctx context.Context, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	body := struct {
		ChildID  string `json:"child_id"`
		LessonID string `json:"lesson_id"`
		models.ProgressSave
	}{ChildID: childID, LessonID: lessonID, ProgressSave: save}

	var resp progressResponse
	err := r.do(ctx, http.MethodPost, "progress", nil, body, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Record, nil
}

// GetSettings returns the child's settings, creating defaults on first access
func (r *REST) GetSettings(ctx context.Context, childID string) (*models.Settings, error) {
	var resp settingsResponse
	err := r.do(ctx, http.MethodGet, "settings", url.Values{"child_id": {childID}}, nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Settings, nil
}

// UpdateSettings applies a partial update and returns the stored settings
func (r *REST) UpdateSettings(ctx context.Context, childID string, update models.SettingsUpdate) (*models.Settings, error) {
	var resp settingsResponse
	err := r.do(ctx, http.MethodPut, "settings", url.Values{"child_id": {childID}}, update, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Settings, nil
}

// CheckDailyReward reports whether today's reward is still unclaimed
func (r *REST) CheckDailyReward(ctx context.Context, childID string) (bool, error) {
	query := url.Values{"child_id": {childID}, "action": {"check"}}
	var resp rewardCheckResponse
	if err := r.do(ctx, http.MethodGet, "daily-rewards", query, nil, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// ClaimDailyReward claims today's reward for the child
func (r *REST) ClaimDailyReward(ctx context.Context, childID string) (*models.RewardClaim, error) {
	body := map[string]string{"child_id": childID}
	var claim models.RewardClaim
	if err := r.do(ctx, http.MethodPost, "daily-rewards", nil, body, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// do performs one API call: bearer token attached when stored, JSON in and
// out, response status mapped to the tagged error taxonomy. There are no
// retries; a failed call is reported once.
func (r *REST) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	fullURL := r.baseURL + "/" + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return backendErrorf("failed to encode request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return backendErrorf("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := r.store.Get(localstore.KeyAuthToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return backendErrorf("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Message: apiErrorMessage(resp.Body, "authentication required")}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &BackendError{Message: apiErrorMessage(resp.Body, "not found"), Err: errNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := apiErrorMessage(resp.Body, fmt.Sprintf("unexpected status %d", resp.StatusCode))
		return &BackendError{Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backendErrorf("failed to decode response", err)
	}
	return nil
}

// apiErrorMessage extracts the server's error message, falling back when the
// body is not the expected shape
func apiErrorMessage(body io.Reader, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}

var _ Backend = (*REST)(nil)
