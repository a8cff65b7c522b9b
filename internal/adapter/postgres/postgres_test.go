package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutramind/internal/domain"
)

// openTestDB connects to NUTRAMIND_TEST_DATABASE_URL. Each test uses a fresh
// user id so runs against a shared database do not collide.
func openTestDB(t *testing.T) (*DB, int64) {
	t.Helper()
	dsn := os.Getenv("NUTRAMIND_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NUTRAMIND_TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	u, err := db.Create(context.Background(), "pg-test-"+uuid.NewString(), "hash")
	require.NoError(t, err)
	return db, u.ID
}

func TestWeightEvents(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := db.AddWeightEvent(ctx, uid, 80, "kg", now.Add(-time.Minute))
	require.NoError(t, err)
	id, err := db.AddWeightEvent(ctx, uid, 79.5, "kg", now)
	require.NoError(t, err)

	latest, err := db.LatestWeightForLocalDay(ctx, uid, now.Format("2006-01-02"))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, 79.5, latest.Value)

	ok, err := db.DeleteLatestWeightEvent(ctx, uid)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := db.ListRecentWeightEvents(ctx, uid, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80.0, list[0].Value)
}

func TestFoodEntries(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()

	e := domain.FoodEntry{
		UserID:      uid,
		Description: "oats",
		Day:         "2026-01-02",
		Time:        "08:00",
		Nutrients:   domain.Nutrients{Calories: 300, Protein: 10, Carbs: 50, Fat: 5},
		CreatedAt:   time.Now(),
	}
	id, err := db.AddFoodEntry(ctx, e)
	require.NoError(t, err)

	got, err := db.GetFoodEntry(ctx, uid, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.Nutrients, got.Nutrients)

	got.Description = "oats and berries"
	require.NoError(t, db.UpdateFoodEntry(ctx, *got))

	day, err := db.ListFoodForDay(ctx, uid, "2026-01-02")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "oats and berries", day[0].Description)

	other, err := db.GetFoodEntry(ctx, uid+1_000_000, id)
	require.NoError(t, err)
	assert.Nil(t, other)

	ok, err := db.DeleteFoodEntry(ctx, uid, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSymptomsAndProfile(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()

	_, err := db.AddSymptom(ctx, domain.SymptomEntry{
		UserID: uid, Day: "2026-01-02",
		Categories: map[string]string{"skin": "clear"},
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	list, err := db.ListRecentSymptoms(ctx, uid, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "clear", list[0].Categories["skin"])

	h := 180.0
	sex := domain.SexMale
	p := &domain.UserProfile{UserID: uid, HeightCm: &h, Sex: &sex, Goals: domain.NewGoalSet(domain.GoalMuscle), UpdatedAt: time.Now()}
	require.NoError(t, db.SaveProfile(ctx, p))

	got, err := db.GetProfile(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 180.0, *got.HeightCm)
	assert.Nil(t, got.WeightKg)
	assert.True(t, got.Goals.Has(domain.GoalMuscle))
}

func TestMutationLedgerKeepsFirst(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, db.RecordMutation(ctx, domain.AppliedMutation{Key: key, UserID: uid, RemoteID: "1", AppliedAt: time.Now()}))
	require.NoError(t, db.RecordMutation(ctx, domain.AppliedMutation{Key: key, UserID: uid, RemoteID: "2", AppliedAt: time.Now()}))

	m, err := db.LookupMutation(ctx, uid, key)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "1", m.RemoteID)
}

func TestSessions(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepo(db)
	token := uuid.NewString()

	require.NoError(t, repo.Create(ctx, uid, token, "ua", "10.0.0.1", time.Now().Add(time.Hour)))
	s, err := repo.GetByToken(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ua", s.UserAgent)
	assert.Equal(t, "10.0.0.1", s.IP)

	require.NoError(t, repo.Delete(ctx, token))
	s, err = repo.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestUsersRejectDuplicateUsername(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()

	u, err := db.GetByID(ctx, uid)
	require.NoError(t, err)
	require.NotNil(t, u)

	_, err = db.Create(ctx, u.Username, "")
	assert.ErrorIs(t, err, domain.ErrUserExists)

	missing, err := db.GetByUsername(ctx, "pg-missing-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionsDeleteExpired(t *testing.T) {
	db, uid := openTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepo(db)
	stale, fresh := uuid.NewString(), uuid.NewString()

	require.NoError(t, repo.Create(ctx, uid, stale, "ua", "", time.Now().Add(-time.Minute)))
	require.NoError(t, repo.Create(ctx, uid, fresh, "ua", "", time.Now().Add(time.Hour)))

	n, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	s, err := repo.GetByToken(ctx, stale)
	require.NoError(t, err)
	assert.Nil(t, s)
	s, err = repo.GetByToken(ctx, fresh)
	require.NoError(t, err)
	assert.NotNil(t, s)
}
