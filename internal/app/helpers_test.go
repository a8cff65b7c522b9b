package app_test

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"nutramind/internal/adapter/memory"
	"nutramind/internal/app"
	"nutramind/internal/domain"
)

type stubEstimator struct {
	est       *domain.NutritionEstimate
	err       error
	lastGoals []domain.GoalTag
}

func (s *stubEstimator) EstimateNutrients(_ context.Context, _ string, goals []domain.GoalTag) (*domain.NutritionEstimate, error) {
	s.lastGoals = goals
	return s.est, s.err
}

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

type stubAdvisor struct {
	recs        []domain.Recommendation
	analysis    *domain.SymptomAnalysis
	suggestions []string
	err         error
	calls       int
	lastInput   domain.AdviceInput
}

func (s *stubAdvisor) Recommend(_ context.Context, in domain.AdviceInput) ([]domain.Recommendation, error) {
	s.calls++
	s.lastInput = in
	return s.recs, s.err
}

func (s *stubAdvisor) AnalyzeSymptoms(_ context.Context, in domain.AdviceInput) (*domain.SymptomAnalysis, error) {
	s.calls++
	s.lastInput = in
	return s.analysis, s.err
}

func (s *stubAdvisor) SuggestFoods(_ context.Context, _ string) ([]string, error) {
	s.calls++
	return s.suggestions, s.err
}

type countingObserver map[string]int

func (c countingObserver) ObserveSync(collection, outcome string) {
	c[collection+"/"+outcome]++
}

type services struct {
	db        *memory.DB
	weights   *app.WeightService
	food      *app.FoodService
	profiles  *app.ProfileService
	symptoms  *app.SymptomService
	analytics *app.AnalyticsService
}

func newServices(est app.NutritionEstimator) services {
	db := memory.New()
	profiles := app.NewProfileService(db)
	food := app.NewFoodService(db, db, est, zerolog.Nop())
	return services{
		db:        db,
		weights:   app.NewWeightService(db, db),
		food:      food,
		profiles:  profiles,
		symptoms:  app.NewSymptomService(db),
		analytics: app.NewAnalyticsService(food, profiles, db),
	}
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
