package app

import (
	"context"
	"math"
	"time"

	"nutramind/internal/domain"
)

// exportLimit bounds each collection in an export.
const exportLimit = math.MaxInt32

// ExportService assembles a full copy of a user's data.
type ExportService struct {
	profiles *ProfileService
	food     *FoodService
	weights  *WeightService
	symptoms *SymptomService
	now      func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(profiles *ProfileService, food *FoodService, weights *WeightService, symptoms *SymptomService) *ExportService {
	return &ExportService{profiles: profiles, food: food, weights: weights, symptoms: symptoms, now: time.Now}
}

// Export returns the profile, food log, weights and symptoms of u.
func (s *ExportService) Export(ctx context.Context, u domain.User) (*domain.Export, error) {
	p, err := s.profiles.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	entries, err := s.food.ListRecent(ctx, u.ID, exportLimit)
	if err != nil {
		return nil, err
	}
	weights, err := s.weights.ListRecent(ctx, u.ID, exportLimit)
	if err != nil {
		return nil, err
	}
	symptoms, err := s.symptoms.ListRecent(ctx, u.ID, exportLimit)
	if err != nil {
		return nil, err
	}
	out := &domain.Export{
		User:       domain.ExportUser{ID: u.ID, Username: u.Username},
		Profile:    p,
		Entries:    entries,
		Weights:    weights,
		Symptoms:   symptoms,
		ExportedAt: s.now().UTC(),
	}
	if out.Entries == nil {
		out.Entries = []domain.FoodEntry{}
	}
	if out.Weights == nil {
		out.Weights = []domain.WeightEntry{}
	}
	if out.Symptoms == nil {
		out.Symptoms = []domain.SymptomEntry{}
	}
	return out, nil
}
