package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"clickstart/internal/security"
	"clickstart/internal/service"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// OAuthHandler implements Google sign-in for parent accounts. The browser is
// sent through the standard authorization-code flow and ends up with the
// same bearer token a password sign-in produces.
type OAuthHandler struct {
	authService     *service.AuthService
	config          *oauth2.Config
	redirectBaseURL string
}

// NewOAuthHandler creates a new OAuth handler. The handler is inert when the
// config has no client ID.
func NewOAuthHandler(authService *service.AuthService, config *oauth2.Config, redirectBaseURL string) *OAuthHandler {
	return &OAuthHandler{
		authService:     authService,
		config:          config,
		redirectBaseURL: redirectBaseURL,
	}
}

// Enabled reports whether Google sign-in is configured
func (h *OAuthHandler) Enabled() bool {
	return h.config != nil && h.config.ClientID != "" && h.config.ClientSecret != ""
}

// Start handles GET /auth/google/start
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled() {
		respondError(w, http.StatusBadRequest, "Google sign-in not configured", nil)
		return
	}

	state := security.GenerateToken()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	config := h.configWithRedirect()
	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/google/callback
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !h.Enabled() {
		respondError(w, http.StatusBadRequest, "Google sign-in not configured", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing authorization code", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondError(w, http.StatusBadRequest, "invalid OAuth state", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := h.configWithRedirect()
	oauthToken, err := config.Exchange(ctx, code)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to exchange OAuth code", err)
		return
	}

	email, name, err := fetchGoogleUser(ctx, oauthToken)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to fetch Google user info", err)
		return
	}

	user, err := h.authService.OAuthLogin(email, name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sign in with Google", err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

func (h *OAuthHandler) configWithRedirect() *oauth2.Config {
	config := *h.config
	config.RedirectURL = h.redirectBaseURL + "/auth/google/callback"
	return &config
}

func fetchGoogleUser(ctx context.Context, token *oauth2.Token) (email, name string, err error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", err
	}

	return payload.Email, payload.Name, nil
}
