package app

import (
	"context"
	"time"

	"nutramind/internal/domain"
)

// WeightService encapsulates weight-tracking use cases.
type WeightService struct {
	repo     domain.WeightRepository
	profiles domain.ProfileRepository
}

// NewWeightService creates a WeightService backed by the given repository.
// When profiles is non-nil, each recorded weight is copied to the user's
// profile so daily targets follow the latest measurement.
func NewWeightService(repo domain.WeightRepository, profiles domain.ProfileRepository) *WeightService {
	return &WeightService{repo: repo, profiles: profiles}
}

// GetTodayWeight returns the latest weight entry for the given local day.
func (s *WeightService) GetTodayWeight(ctx context.Context, userID int64, today string) (*domain.WeightEntry, error) {
	return s.repo.LatestWeightForLocalDay(ctx, userID, today)
}

// RecordWeight validates and stores a new weight measurement, returning the
// id of the new event and the latest entry for today after the insert.
func (s *WeightService) RecordWeight(ctx context.Context, userID int64, value float64, unit string) (int64, *domain.WeightEntry, string, error) {
	if err := domain.ValidateWeight(value, unit); err != nil {
		return 0, nil, "", invalid("%s", err)
	}
	now := time.Now()
	today := localDay(now)
	id, err := s.repo.AddWeightEvent(ctx, userID, value, unit, now)
	if err != nil {
		return 0, nil, today, err
	}
	if err := s.syncProfileWeight(ctx, userID, domain.ConvertWeight(value, unit, domain.UnitKg)); err != nil {
		return id, nil, today, err
	}
	entry, err := s.repo.LatestWeightForLocalDay(ctx, userID, today)
	return id, entry, today, err
}

func (s *WeightService) syncProfileWeight(ctx context.Context, userID int64, kg float64) error {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		p = &domain.UserProfile{UserID: userID}
	}
	p.WeightKg = &kg
	p.UpdatedAt = time.Now()
	p.Normalize()
	return s.profiles.SaveProfile(ctx, p)
}

// ListRecent returns the most recent weight events up to limit.
func (s *WeightService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	return s.repo.ListRecentWeightEvents(ctx, userID, limit)
}

// Delete removes a single weight event. Deleting a missing event is not an
// error; the boolean reports whether anything was removed.
func (s *WeightService) Delete(ctx context.Context, userID, id int64) (bool, error) {
	deleted, err := s.repo.DeleteWeightEvent(ctx, userID, id)
	if err != nil || !deleted {
		return deleted, err
	}
	return true, s.resyncProfileWeight(ctx, userID)
}

// UndoLast deletes the most recent weight event and returns the new latest
// entry for today.
func (s *WeightService) UndoLast(ctx context.Context, userID int64) (bool, *domain.WeightEntry, string, error) {
	today := localDay(time.Now())
	deleted, err := s.repo.DeleteLatestWeightEvent(ctx, userID)
	if err != nil {
		return false, nil, today, err
	}
	if deleted {
		if err := s.resyncProfileWeight(ctx, userID); err != nil {
			return true, nil, today, err
		}
	}
	entry, err := s.repo.LatestWeightForLocalDay(ctx, userID, today)
	if err != nil {
		return deleted, nil, today, err
	}
	return deleted, entry, today, nil
}

// resyncProfileWeight copies the newest remaining event to the profile. With
// no events left the profile keeps its weight.
func (s *WeightService) resyncProfileWeight(ctx context.Context, userID int64) error {
	if s.profiles == nil {
		return nil
	}
	latest, err := s.repo.ListRecentWeightEvents(ctx, userID, 1)
	if err != nil {
		return err
	}
	if len(latest) == 0 {
		return nil
	}
	return s.syncProfileWeight(ctx, userID, latest[0].Kg())
}

func localDay(t time.Time) string {
	return t.In(time.Local).Format(dayLayout)
}

const dayLayout = "2006-01-02"
