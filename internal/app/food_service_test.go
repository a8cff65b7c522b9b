package app_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"nutramind/internal/app"
	"nutramind/internal/domain"
)

func TestLogFood_UsesEstimatorWithGoals(t *testing.T) {
	est := &stubEstimator{est: &domain.NutritionEstimate{
		Nutrients: domain.Nutrients{Calories: 500, Protein: 30, Carbs: 60, Fat: 15},
		Analysis:  "balanced",
	}}
	s := newServices(est)
	ctx := context.Background()
	if err := s.profiles.SetGoal(ctx, 1, domain.GoalMuscle, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, err := s.food.LogFood(ctx, 1, "  chicken and rice ", "2026-02-01", "12:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == 0 || e.Description != "chicken and rice" || e.Nutrients.Calories != 500 || e.Analysis != "balanced" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(est.lastGoals) != 1 || est.lastGoals[0] != domain.GoalMuscle {
		t.Fatalf("expected goals passed to estimator, got %v", est.lastGoals)
	}
}

func TestLogFood_FallbackOnEstimatorError(t *testing.T) {
	s := newServices(&stubEstimator{err: errBoom})
	e, err := s.food.LogFood(context.Background(), 1, "mystery stew", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Nutrients != (domain.Nutrients{}) || e.Analysis == "" {
		t.Fatalf("expected fallback estimate, got %+v", e)
	}
	if e.Day == "" || e.Time == "" {
		t.Fatalf("expected day and time defaults, got %+v", e)
	}
}

func TestLogFoodWithNutrients_Validation(t *testing.T) {
	s := newServices(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		desc string
		day  string
		n    domain.Nutrients
	}{
		{"empty description", " ", "", domain.Nutrients{}},
		{"negative", "x", "", domain.Nutrients{Calories: -1}},
		{"nan", "x", "", domain.Nutrients{Fat: math.NaN()}},
		{"bad day", "x", "01/02/2026", domain.Nutrients{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.food.LogFoodWithNutrients(ctx, 1, tc.desc, tc.day, "", tc.n, "")
			if !errors.Is(err, app.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	s := newServices(nil)
	ctx := context.Background()

	e, err := s.food.LogFoodWithNutrients(ctx, 1, "toast", "2026-02-01", "08:00", domain.Nutrients{Calories: 200}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.food.UpdateEntry(ctx, 1, e.ID, domain.FoodPatch{Description: ptr("toast with jam")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "toast with jam" || got.Nutrients.Calories != 200 {
		t.Fatalf("unexpected entry after patch: %+v", got)
	}

	if _, err := s.food.UpdateEntry(ctx, 2, e.ID, domain.FoodPatch{}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
	if _, err := s.food.UpdateEntry(ctx, 1, e.ID, domain.FoodPatch{Day: ptr("yesterday")}); !errors.Is(err, app.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	ok, err := s.food.DeleteEntry(ctx, 1, e.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete, got %v %v", ok, err)
	}
	ok, _ = s.food.DeleteEntry(ctx, 1, e.ID)
	if ok {
		t.Fatal("second delete should report false")
	}
}

func TestDayTotals(t *testing.T) {
	s := newServices(nil)
	ctx := context.Background()
	for _, n := range []domain.Nutrients{
		{Calories: 300, Protein: 20, Carbs: 30, Fat: 10},
		{Calories: 450, Protein: 35, Carbs: 40, Fat: 12},
	} {
		if _, err := s.food.LogFoodWithNutrients(ctx, 1, "meal", "2026-02-01", "", n, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.food.LogFoodWithNutrients(ctx, 1, "other day", "2026-02-02", "", domain.Nutrients{Calories: 999}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.food.DayTotals(ctx, 1, "2026-02-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.Nutrients{Calories: 750, Protein: 55, Carbs: 70, Fat: 22}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
