package app

import (
	"context"
	"time"

	"nutramind/internal/domain"
)

// ProfileService manages user profiles and derives daily targets from them.
type ProfileService struct {
	repo domain.ProfileRepository
}

// NewProfileService creates a ProfileService backed by the given repository.
func NewProfileService(repo domain.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile returns the stored profile, or an empty one when the user has
// not filled anything in yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &domain.UserProfile{UserID: userID}
	}
	p.Normalize()
	return p, nil
}

// UpdateProfile validates and stores p for userID. Explicitly invalid enum
// values are rejected; malformed numbers are cleared rather than stored.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, p domain.UserProfile) (*domain.UserProfile, error) {
	if p.Sex != nil && !p.Sex.Valid() {
		return nil, invalid("sex must be \"male\" or \"female\"")
	}
	if p.Activity != nil && !p.Activity.Valid() {
		return nil, invalid("unknown activity level %q", *p.Activity)
	}
	p.UserID = userID
	p.UpdatedAt = time.Now()
	p.Normalize()
	if err := s.repo.SaveProfile(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetGoal adds or removes a single goal tag.
func (s *ProfileService) SetGoal(ctx context.Context, userID int64, tag domain.GoalTag, on bool) error {
	if !tag.Valid() {
		return invalid("unknown goal %q", tag)
	}
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if on {
		p.Goals[tag] = struct{}{}
	} else {
		delete(p.Goals, tag)
	}
	p.UpdatedAt = time.Now()
	return s.repo.SaveProfile(ctx, p)
}

// ClearGoals removes every goal tag from the profile.
func (s *ProfileService) ClearGoals(ctx context.Context, userID int64) error {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	p.Goals = domain.GoalSet{}
	p.UpdatedAt = time.Now()
	return s.repo.SaveProfile(ctx, p)
}

// Targets recomputes the user's daily targets from the stored profile. The
// result is never persisted.
func (s *ProfileService) Targets(ctx context.Context, userID int64) (domain.DailyTargets, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return domain.DefaultTargets, err
	}
	if p != nil {
		p.Normalize()
	}
	return domain.ComputeDailyTargets(p), nil
}
