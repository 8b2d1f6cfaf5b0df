package service

import (
	"errors"
	"fmt"

	"clickstart/internal/models"
	"clickstart/internal/repository"
	"clickstart/internal/validation"
)

var (
	ErrChildNotFound        = errors.New("child not found")
	ErrForbidden            = errors.New("access denied")
	ErrRewardAlreadyClaimed = errors.New("daily reward already claimed")
)

// ProfileService manages child profiles and everything keyed by them:
// progress, settings and daily rewards. Every operation that takes a child
// ID checks ownership first; guest children (no owning user) are reachable
// without authentication.
type ProfileService struct {
	childRepo    *repository.ChildRepository
	progressRepo *repository.ProgressRepository
	settingsRepo *repository.SettingsRepository
	rewardRepo   *repository.RewardRepository
}

// NewProfileService creates a new profile service
func NewProfileService(
	childRepo *repository.ChildRepository,
	progressRepo *repository.ProgressRepository,
	settingsRepo *repository.SettingsRepository,
	rewardRepo *repository.RewardRepository,
) *ProfileService {
	return &ProfileService{
		childRepo:    childRepo,
		progressRepo: progressRepo,
		settingsRepo: settingsRepo,
		rewardRepo:   rewardRepo,
	}
}

// ListChildren returns the children owned by a user
func (s *ProfileService) ListChildren(userID string) ([]models.ChildProfile, error) {
	children, err := s.childRepo.GetUserChildren(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// CreateChild creates a child profile. When requester is nil the profile is
// a guest profile with no owning user.
func (s *ProfileService) CreateChild(requester *models.User, child *models.ChildProfile) (*models.ChildProfile, error) {
	if err := validation.ValidateChildName(child.Name); err != nil {
		return nil, err
	}

	if requester != nil {
		child.UserID = requester.ID
	} else {
		child.UserID = ""
	}

	created, err := s.childRepo.CreateChild(child)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return created, nil
}

// UpdateChild applies a partial update after an ownership check
func (s *ProfileService) UpdateChild(requester *models.User, id string, update models.ChildUpdate) (*models.ChildProfile, error) {
	if _, err := s.authorizeChild(requester, id); err != nil {
		return nil, err
	}

	if update.Name != nil {
		if err := validation.ValidateChildName(*update.Name); err != nil {
			return nil, err
		}
	}

	updated, err := s.childRepo.UpdateChild(id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}
	if updated == nil {
		return nil, ErrChildNotFound
	}
	return updated, nil
}

// GetProgress returns all progress records for a child
func (s *ProfileService) GetProgress(requester *models.User, childID string) ([]models.ProgressRecord, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return nil, err
	}

	records, err := s.progressRepo.GetChildProgress(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return records, nil
}

// SaveProgress upserts the record for (child, lesson) and stamps the child's
// last activity
func (s *ProfileService) SaveProgress(requester *models.User, childID, lessonID string, save models.ProgressSave) (*models.ProgressRecord, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return nil, err
	}

	record, err := s.progressRepo.SaveProgress(childID, lessonID, save)
	if err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}

	if err := s.childRepo.TouchLastActive(childID); err != nil {
		return nil, fmt.Errorf("failed to update child activity: %w", err)
	}

	return record, nil
}

// GetSettings returns the child's settings, creating defaults on first read
func (s *ProfileService) GetSettings(requester *models.User, childID string) (*models.Settings, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.GetOrCreate(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies a partial settings update
func (s *ProfileService) UpdateSettings(requester *models.User, childID string, update models.SettingsUpdate) (*models.Settings, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Update(childID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return settings, nil
}

// CheckDailyReward reports whether today's reward is still unclaimed
func (s *ProfileService) CheckDailyReward(requester *models.User, childID string) (bool, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return false, err
	}

	claimed, err := s.rewardRepo.HasClaimed(childID, models.Today())
	if err != nil {
		return false, fmt.Errorf("failed to check daily reward: %w", err)
	}
	return !claimed, nil
}

// ClaimDailyReward claims today's reward: one fixed XP grant per child per
// calendar day, bumping the streak counters
func (s *ProfileService) ClaimDailyReward(requester *models.User, childID string) (*models.RewardClaim, error) {
	if _, err := s.authorizeChild(requester, childID); err != nil {
		return nil, err
	}

	today := models.Today()

	claimed, err := s.rewardRepo.HasClaimed(childID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily reward: %w", err)
	}
	if claimed {
		return nil, ErrRewardAlreadyClaimed
	}

	claim, err := s.rewardRepo.Claim(childID, today, models.DailyRewardXP)
	if err != nil {
		// A concurrent claim for the same day hits the unique constraint
		return nil, ErrRewardAlreadyClaimed
	}
	return claim, nil
}

// authorizeChild loads the child and verifies the requester may act on it.
// Guest children are open; owned children require their owner.
func (s *ProfileService) authorizeChild(requester *models.User, childID string) (*models.ChildProfile, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if child.UserID != "" {
		if requester == nil || requester.ID != child.UserID {
			return nil, ErrForbidden
		}
	}
	return child, nil
}
