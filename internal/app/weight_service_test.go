package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutramind/internal/adapter/memory"
	"nutramind/internal/app"
	"nutramind/internal/domain"
)

type mockWeightRepo struct {
	addFn      func(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error)
	deleteIDFn func(ctx context.Context, userID, id int64) (bool, error)
	deleteFn   func(ctx context.Context, userID int64) (bool, error)
	latestFn   func(ctx context.Context, userID int64, day string) (*domain.WeightEntry, error)
	listFn     func(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error)
}

func (m *mockWeightRepo) AddWeightEvent(ctx context.Context, userID int64, v float64, u string, t time.Time) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, userID, v, u, t)
	}
	return 0, nil
}

func (m *mockWeightRepo) DeleteWeightEvent(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteIDFn != nil {
		return m.deleteIDFn(ctx, userID, id)
	}
	return false, nil
}

func (m *mockWeightRepo) DeleteLatestWeightEvent(ctx context.Context, userID int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return false, nil
}

func (m *mockWeightRepo) LatestWeightForLocalDay(ctx context.Context, userID int64, day string) (*domain.WeightEntry, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockWeightRepo) ListRecentWeightEvents(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

func TestRecordWeight_Validation(t *testing.T) {
	svc := app.NewWeightService(&mockWeightRepo{}, nil)

	tests := []struct {
		name  string
		value float64
		unit  string
	}{
		{"zero value", 0, "kg"},
		{"negative value", -5, "kg"},
		{"absurd value", 5000, "kg"},
		{"bad unit", 80, "stones"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.RecordWeight(context.Background(), 1, tc.value, tc.unit)
			if !errors.Is(err, app.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRecordWeight_Success(t *testing.T) {
	entry := &domain.WeightEntry{ID: 1, Value: 80, Unit: "kg"}
	repo := &mockWeightRepo{
		addFn: func(_ context.Context, _ int64, _ float64, _ string, _ time.Time) (int64, error) {
			return 1, nil
		},
		latestFn: func(_ context.Context, _ int64, _ string) (*domain.WeightEntry, error) {
			return entry, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	id, got, today, err := svc.RecordWeight(context.Background(), 1, 80, "kg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	if today == "" {
		t.Fatal("expected today string")
	}
	if got == nil || got.ID != 1 {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestRecordWeight_UpdatesProfile(t *testing.T) {
	db := memory.New()
	svc := app.NewWeightService(db, db)

	if _, _, _, err := svc.RecordWeight(context.Background(), 3, 176.37, "lb"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := db.GetProfile(context.Background(), 3)
	if err != nil || p == nil || p.WeightKg == nil {
		t.Fatalf("expected profile weight, got %+v, %v", p, err)
	}
	if *p.WeightKg < 79.9 || *p.WeightKg > 80.1 {
		t.Fatalf("expected ~80 kg, got %v", *p.WeightKg)
	}
}

func TestRecordWeight_RepoError(t *testing.T) {
	repo := &mockWeightRepo{
		addFn: func(_ context.Context, _ int64, _ float64, _ string, _ time.Time) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	svc := app.NewWeightService(repo, nil)
	_, _, _, err := svc.RecordWeight(context.Background(), 1, 80, "kg")
	if err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestGetTodayWeight(t *testing.T) {
	entry := &domain.WeightEntry{ID: 5, Value: 75, Unit: "kg"}
	repo := &mockWeightRepo{
		latestFn: func(_ context.Context, _ int64, day string) (*domain.WeightEntry, error) {
			if day != "2026-01-15" {
				t.Fatalf("unexpected day: %s", day)
			}
			return entry, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	got, err := svc.GetTodayWeight(context.Background(), 1, "2026-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != 5 {
		t.Fatalf("unexpected entry: %v", got)
	}
}

func TestUndoLastWeight(t *testing.T) {
	repo := &mockWeightRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return true, nil },
		latestFn: func(_ context.Context, _ int64, _ string) (*domain.WeightEntry, error) { return nil, nil },
	}
	svc := app.NewWeightService(repo, nil)
	deleted, _, _, err := svc.UndoLast(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}
}

func TestUndoLastWeight_LatestError(t *testing.T) {
	repo := &mockWeightRepo{
		deleteFn: func(_ context.Context, _ int64) (bool, error) { return true, nil },
		latestFn: func(_ context.Context, _ int64, _ string) (*domain.WeightEntry, error) {
			return nil, errors.New("db down")
		},
	}
	svc := app.NewWeightService(repo, nil)
	if _, _, _, err := svc.UndoLast(context.Background(), 1); err == nil {
		t.Fatal("expected error from latest lookup")
	}
}

func TestUndoLastWeight_RestoresProfileWeight(t *testing.T) {
	db := memory.New()
	svc := app.NewWeightService(db, db)
	ctx := context.Background()

	if _, err := db.AddWeightEvent(ctx, 3, 82, "kg", time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, _, err := svc.RecordWeight(ctx, 3, 90, "kg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, _ := db.GetProfile(ctx, 3); p == nil || p.WeightKg == nil || *p.WeightKg != 90 {
		t.Fatalf("expected profile weight 90, got %+v", p)
	}

	deleted, _, _, err := svc.UndoLast(ctx, 3)
	if err != nil || !deleted {
		t.Fatalf("undo: deleted=%v err=%v", deleted, err)
	}
	p, err := db.GetProfile(ctx, 3)
	if err != nil || p == nil || p.WeightKg == nil {
		t.Fatalf("expected profile weight, got %+v, %v", p, err)
	}
	if *p.WeightKg != 82 {
		t.Fatalf("expected profile weight to fall back to 82, got %v", *p.WeightKg)
	}
}

func TestDeleteWeight_ScopedToUser(t *testing.T) {
	var gotUser, gotID int64
	repo := &mockWeightRepo{
		deleteIDFn: func(_ context.Context, userID, id int64) (bool, error) {
			gotUser, gotID = userID, id
			return true, nil
		},
	}
	svc := app.NewWeightService(repo, nil)
	if _, err := svc.Delete(context.Background(), 4, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != 4 || gotID != 9 {
		t.Fatalf("expected (4, 9), got (%d, %d)", gotUser, gotID)
	}
}

func TestListRecentWeight_Error(t *testing.T) {
	repo := &mockWeightRepo{
		listFn: func(_ context.Context, _ int64, _ int) ([]domain.WeightEntry, error) {
			return nil, errors.New("db down")
		},
	}
	svc := app.NewWeightService(repo, nil)
	_, err := svc.ListRecent(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected error")
	}
}
