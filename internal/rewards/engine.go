// Package rewards drives the daily-reward flow for the active child: check
// whether today's reward is still available, claim it once, and hand the
// result to the session layer.
package rewards

import (
	"context"
	"errors"
	"sync"

	"clickstart/internal/backend"
	"clickstart/internal/models"
)

var (
	ErrNoChild        = errors.New("no child loaded")
	ErrAlreadyClaimed = errors.New("daily reward already claimed today")
)

// Status is the engine's view of today's reward for the loaded child
type Status int

const (
	// StatusUnknown means no check has run since the child was loaded
	StatusUnknown Status = iota
	// StatusClaimable means today's reward has not been claimed yet
	StatusClaimable
	// StatusClaimed means today's reward is gone
	StatusClaimed
)

// Engine tracks daily-reward availability for one child
type Engine struct {
	backend backend.Backend

	mu      sync.RWMutex
	childID string
	status  Status
}

// NewEngine creates an engine with no child loaded
func NewEngine(b backend.Backend) *Engine {
	return &Engine{backend: b}
}

// Refresh re-checks availability for childID
func (e *Engine) Refresh(ctx context.Context, childID string) error {
	available, err := e.backend.CheckDailyReward(ctx, childID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.childID = childID
	if available {
		e.status = StatusClaimable
	} else {
		e.status = StatusClaimed
	}
	e.mu.Unlock()
	return nil
}

// Status returns the current availability
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Claim claims today's reward. A second claim on the same day fails with
// ErrAlreadyClaimed without reaching the backend.
func (e *Engine) Claim(ctx context.Context) (*models.RewardClaim, error) {
	e.mu.RLock()
	childID := e.childID
	status := e.status
	e.mu.RUnlock()

	if childID == "" {
		return nil, ErrNoChild
	}
	if status == StatusClaimed {
		return nil, ErrAlreadyClaimed
	}

	claim, err := e.backend.ClaimDailyReward(ctx, childID)
	if err != nil {
		// The backend may have recorded a claim we never saw
		if refreshErr := e.Refresh(ctx, childID); refreshErr == nil && e.Status() == StatusClaimed {
			return nil, ErrAlreadyClaimed
		}
		return nil, err
	}

	e.mu.Lock()
	e.status = StatusClaimed
	e.mu.Unlock()

	return claim, nil
}
