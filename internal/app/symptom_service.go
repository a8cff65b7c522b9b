package app

import (
	"context"
	"strings"
	"time"

	"nutramind/internal/domain"
)

// SymptomService encapsulates symptom-journal use cases.
type SymptomService struct {
	repo domain.SymptomRepository
}

// NewSymptomService creates a SymptomService backed by the given repository.
func NewSymptomService(repo domain.SymptomRepository) *SymptomService {
	return &SymptomService{repo: repo}
}

// Record validates and stores a symptom entry.
func (s *SymptomService) Record(ctx context.Context, userID int64, day string, categories map[string]string, notes string) (int64, error) {
	clean := make(map[string]string, len(categories))
	for k, v := range categories {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		clean[k] = v
	}
	notes = strings.TrimSpace(notes)
	if len(clean) == 0 && notes == "" {
		return 0, invalid("at least one category or a note is required")
	}
	now := time.Now()
	if day == "" {
		day = localDay(now)
	} else if _, err := time.Parse(dayLayout, day); err != nil {
		return 0, invalid("day must be YYYY-MM-DD")
	}
	return s.repo.AddSymptom(ctx, domain.SymptomEntry{
		UserID:     userID,
		Day:        day,
		Categories: clean,
		Notes:      notes,
		CreatedAt:  now.UTC(),
	})
}

// ListRecent returns the most recent symptom entries up to limit.
func (s *SymptomService) ListRecent(ctx context.Context, userID int64, limit int) ([]domain.SymptomEntry, error) {
	return s.repo.ListRecentSymptoms(ctx, userID, limit)
}

// Delete removes a single entry; the boolean reports whether it existed.
func (s *SymptomService) Delete(ctx context.Context, userID, id int64) (bool, error) {
	return s.repo.DeleteSymptom(ctx, userID, id)
}

// UndoLast deletes the most recent symptom entry.
func (s *SymptomService) UndoLast(ctx context.Context, userID int64) (bool, int64, error) {
	items, err := s.repo.ListRecentSymptoms(ctx, userID, 1)
	if err != nil {
		return false, 0, err
	}
	if len(items) == 0 {
		return false, 0, nil
	}
	if _, err := s.repo.DeleteSymptom(ctx, userID, items[0].ID); err != nil {
		return false, 0, err
	}
	return true, items[0].ID, nil
}
