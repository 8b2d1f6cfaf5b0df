package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"clickstart/internal/config"
	"clickstart/internal/database"
	"clickstart/internal/handlers"
	"clickstart/internal/repository"
	"clickstart/internal/security"
	"clickstart/internal/service"
)

func main() {
	// Load .env if present; real environment wins
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize database (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.SessionDuration)
	profileService := service.NewProfileService(childRepo, progressRepo, settingsRepo, rewardRepo)
	lessonService := service.NewLessonService(lessonRepo)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Seed the lesson catalog on first run
	if err := lessonService.SeedDefaultLessons(); err != nil {
		log.Printf("Warning: Failed to seed lessons: %v", err)
	}

	googleOAuth := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}

	// Handlers
	middleware := handlers.NewMiddleware(authService)
	authLimiter := security.NewRateLimiter(10, time.Minute)
	authHandler := handlers.NewAuthHandler(authService, emailService)
	oauthHandler := handlers.NewOAuthHandler(authService, googleOAuth, cfg.OAuthRedirectBaseURL)
	childHandler := handlers.NewChildHandler(profileService)
	lessonHandler := handlers.NewLessonHandler(lessonService)
	progressHandler := handlers.NewProgressHandler(profileService)
	settingsHandler := handlers.NewSettingsHandler(profileService)
	rewardHandler := handlers.NewRewardHandler(profileService)

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth", handlers.RateLimit(authLimiter, authHandler.Authenticate))
	mux.HandleFunc("GET /api/auth", middleware.RequireAuth(authHandler.CurrentUser))
	mux.HandleFunc("GET /auth/google/start", oauthHandler.Start)
	mux.HandleFunc("GET /auth/google/callback", oauthHandler.Callback)

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

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired hosted-mode sessions accumulate; sweep them hourly
	go cleanupExpiredSessions(userRepo)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
}

func cleanupExpiredSessions(userRepo *repository.UserRepository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := userRepo.DeleteExpiredSessions(); err != nil {
			log.Printf("Failed to cleanup expired sessions: %v", err)
		}
	}
}
