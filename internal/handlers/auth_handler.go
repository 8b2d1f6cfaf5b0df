package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"clickstart/internal/models"
	"clickstart/internal/service"
	"clickstart/internal/validation"
)

// AuthHandler handles account registration and sign-in for the API
type AuthHandler struct {
	authService  *service.AuthService
	emailService *service.EmailService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// Authenticate handles POST /api/auth with action=signup or action=signin
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	switch r.URL.Query().Get("action") {
	case "signup":
		h.signUp(w, r, req)
	case "signin":
		h.signIn(w, req)
	default:
		respondError(w, http.StatusBadRequest, "unknown auth action", nil)
	}
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request, req credentialsRequest) {
	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		var validationErr validation.ValidationError
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email already taken", nil)
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, validationErr.Error(), nil)
		default:
			respondError(w, http.StatusInternalServerError, "failed to create account", err)
		}
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	// Welcome email is best effort; registration already succeeded
	go func() {
		if err := h.emailService.SendWelcomeEmail(context.Background(), user.Email, user.Name); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}()

	respondJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

func (h *AuthHandler) signIn(w http.ResponseWriter, req credentialsRequest) {
	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid email or password", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "failed to sign in", err)
		}
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// CurrentUser handles GET /api/auth
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{User: user})
}
