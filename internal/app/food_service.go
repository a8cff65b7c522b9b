package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

// NutritionEstimator turns a free-text meal description into nutrients.
type NutritionEstimator interface {
	EstimateNutrients(ctx context.Context, description string, goals []domain.GoalTag) (*domain.NutritionEstimate, error)
}

const fallbackAnalysis = "Nutrition estimate unavailable right now. You can edit the values manually."

// FoodService encapsulates food-logging use cases.
type FoodService struct {
	repo      domain.FoodRepository
	profiles  domain.ProfileRepository
	estimator NutritionEstimator
	log       zerolog.Logger
}

// NewFoodService creates a FoodService. estimator may be nil, in which case
// entries logged without nutrients get a zero estimate.
func NewFoodService(repo domain.FoodRepository, profiles domain.ProfileRepository, estimator NutritionEstimator, log zerolog.Logger) *FoodService {
	return &FoodService{repo: repo, profiles: profiles, estimator: estimator, log: log}
}

// LogFood estimates the nutrients of description and stores the entry. An
// estimator failure is logged and replaced by a fallback estimate.
func (s *FoodService) LogFood(ctx context.Context, userID int64, description, day, clock string) (*domain.FoodEntry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("description is required")
	}
	est := s.estimate(ctx, userID, description)
	return s.LogFoodWithNutrients(ctx, userID, description, day, clock, est.Nutrients, est.Analysis)
}

// LogFoodWithNutrients stores an entry whose nutrients are already known.
func (s *FoodService) LogFoodWithNutrients(ctx context.Context, userID int64, description, day, clock string, n domain.Nutrients, analysis string) (*domain.FoodEntry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, invalid("description is required")
	}
	if !n.Valid() {
		return nil, invalid("nutrients must be finite and non-negative")
	}
	now := time.Now()
	if day == "" {
		day = localDay(now)
	} else if _, err := time.Parse(dayLayout, day); err != nil {
		return nil, invalid("day must be YYYY-MM-DD")
	}
	if clock == "" {
		clock = now.In(time.Local).Format("15:04")
	}
	e := domain.FoodEntry{
		UserID:      userID,
		Description: description,
		Day:         day,
		Time:        clock,
		Nutrients:   n,
		Analysis:    analysis,
		CreatedAt:   now.UTC(),
	}
	id, err := s.repo.AddFoodEntry(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func (s *FoodService) estimate(ctx context.Context, userID int64, description string) domain.NutritionEstimate {
	fallback := domain.NutritionEstimate{Analysis: fallbackAnalysis}
	if s.estimator == nil {
		return fallback
	}
	var goals []domain.GoalTag
	if s.profiles != nil {
		if p, err := s.profiles.GetProfile(ctx, userID); err == nil && p != nil {
			goals = p.Goals.Tags()
		}
	}
	est, err := s.estimator.EstimateNutrients(ctx, description, goals)
	if err != nil || est == nil || !est.Nutrients.Valid() {
		s.log.Warn().Err(err).Int64("user", userID).Msg("nutrition estimate failed, using fallback")
		return fallback
	}
	return *est
}

// UpdateEntry applies patch to an existing entry.
func (s *FoodService) UpdateEntry(ctx context.Context, userID, id int64, patch domain.FoodPatch) (*domain.FoodEntry, error) {
	e, err := s.repo.GetFoodEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	patch.Apply(e)
	if strings.TrimSpace(e.Description) == "" {
		return nil, invalid("description is required")
	}
	if !e.Nutrients.Valid() {
		return nil, invalid("nutrients must be finite and non-negative")
	}
	if _, err := time.Parse(dayLayout, e.Day); err != nil {
		return nil, invalid("day must be YYYY-MM-DD")
	}
	if err := s.repo.UpdateFoodEntry(ctx, *e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEntry removes an entry; the boolean reports whether it existed.
func (s *FoodService) DeleteEntry(ctx context.Context, userID, id int64) (bool, error) {
	return s.repo.DeleteFoodEntry(ctx, userID, id)
}

// ListForDay returns the entries logged on a local day.
func (s *FoodService) ListForDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	return s.repo.ListFoodForDay(ctx, userID, day)
}

// ListRecent returns the most recent entries up to limit.
func (s *FoodService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.FoodEntry, error) {
	return s.repo.ListRecentFood(ctx, userID, limit)
}

// DayTotals sums the nutrients logged on a local day.
func (s *FoodService) DayTotals(ctx context.Context, userID int64, day string) (domain.Nutrients, error) {
	entries, err := s.repo.ListFoodForDay(ctx, userID, day)
	if err != nil {
		return domain.Nutrients{}, err
	}
	var total domain.Nutrients
	for _, e := range entries {
		total = total.Add(e.Nutrients)
	}
	return total, nil
}
