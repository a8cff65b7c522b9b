package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"nutramind/internal/app"
	"nutramind/internal/domain"
)

func TestExport_EmptyUserHasEmptyLists(t *testing.T) {
	s := newServices(nil)
	svc := app.NewExportService(s.profiles, s.food, s.weights, s.symptoms)

	out, err := svc.Export(context.Background(), domain.User{ID: 7, Username: "ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.User.ID != 7 || out.User.Username != "ada" || out.Profile == nil {
		t.Fatalf("unexpected export header: %+v", out)
	}
	b, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"entries", "weights", "symptoms"} {
		if string(raw[key]) != "[]" {
			t.Errorf("expected %s to encode as [], got %s", key, raw[key])
		}
	}
	if _, ok := raw["exportDate"]; !ok {
		t.Errorf("expected exportDate in %s", b)
	}
}

func TestExport_IncludesAllCollections(t *testing.T) {
	s := newServices(nil)
	ctx := context.Background()
	for _, d := range []string{"eggs", "rice", "apple"} {
		if _, err := s.food.LogFoodWithNutrients(ctx, 1, d, "2026-03-01", "12:00", domain.Nutrients{Calories: 100}, ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, _, err := s.weights.RecordWeight(ctx, 1, 70, "kg"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.symptoms.Record(ctx, 1, "2026-03-01", map[string]string{"energy": "low"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.food.LogFoodWithNutrients(ctx, 2, "someone else's lunch", "2026-03-01", "12:00", domain.Nutrients{}, ""); err != nil {
		t.Fatal(err)
	}

	svc := app.NewExportService(s.profiles, s.food, s.weights, s.symptoms)
	out, err := svc.Export(ctx, domain.User{ID: 1, Username: "ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Entries) != 3 || len(out.Weights) != 1 || len(out.Symptoms) != 1 {
		t.Fatalf("unexpected export sizes: %d entries, %d weights, %d symptoms", len(out.Entries), len(out.Weights), len(out.Symptoms))
	}
	if out.Profile.WeightKg == nil || *out.Profile.WeightKg != 70 {
		t.Fatalf("expected profile weight 70, got %v", out.Profile.WeightKg)
	}
	if out.ExportedAt.IsZero() {
		t.Fatal("expected export time")
	}
}
