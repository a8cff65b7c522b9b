package syncclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapthttp "nutramind/internal/adapter/http"
	"nutramind/internal/adapter/memory"
	"nutramind/internal/adapter/syncclient"
	"nutramind/internal/app"
	"nutramind/internal/domain"
	"nutramind/internal/offline"
)

func newServer(t *testing.T, disableAuth bool) (*httptest.Server, *memory.DB) {
	t.Helper()
	log := zerolog.Nop()
	db := memory.New()
	profiles := app.NewProfileService(db)
	food := app.NewFoodService(db, db, nil, log)
	weights := app.NewWeightService(db, db)
	symptoms := app.NewSymptomService(db)
	analytics := app.NewAnalyticsService(food, profiles, db)

	srv := adapthttp.New(adapthttp.Services{
		Weight:    weights,
		Food:      food,
		Profile:   profiles,
		Symptoms:  symptoms,
		Analytics: analytics,
		Insights:  app.NewInsightService(nil, analytics, profiles, log),
		Sync:      app.NewSyncService(db, food, weights, symptoms, profiles, nil, log),
		Auth:      app.NewAuthService(db, db.NewSessionRepo()),
	}, adapthttp.OIDCConfig{}, t.TempDir(), log)
	if disableAuth {
		srv.WithoutAuth()
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func TestDrainAgainstServer(t *testing.T) {
	ctx := context.Background()
	ts, db := newServer(t, true)
	client := syncclient.New(ts.URL, "")

	q := offline.NewQueue(1, nil, nil, zerolog.Nop())
	ref, err := q.Enqueue(ctx, domain.Mutation{
		Kind:       domain.MutationAdd,
		Collection: domain.CollectionFood,
		Payload:    json.RawMessage(`{"description":"rice bowl","day":"2026-03-01","nutrients":{"calories":600,"protein":20,"carbs":90,"fat":12}}`),
	})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, domain.Mutation{
		Kind:       domain.MutationUpdate,
		Collection: domain.CollectionFood,
		RecordID:   ref.ID(),
		Payload:    json.RawMessage(`{"description":"rice bowl with tofu"}`),
	})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, domain.Mutation{
		Kind:       domain.MutationAdd,
		Collection: domain.CollectionGoals,
		Payload:    json.RawMessage(`{"tag":"diet"}`),
	})
	require.NoError(t, err)

	res, err := q.Drain(ctx, client)
	require.NoError(t, err)
	assert.Len(t, res.Applied, 2)

	items, err := db.ListFoodForDay(ctx, 1, "2026-03-01")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rice bowl with tofu", items[0].Description)

	committed := q.Resolve(ref)
	assert.False(t, committed.IsPending())

	// Deleting through the committed id reaches the stored record.
	_, err = q.Enqueue(ctx, domain.Mutation{Kind: domain.MutationDelete, Collection: domain.CollectionFood, RecordID: ref.ID()})
	require.NoError(t, err)
	_, err = q.Drain(ctx, client)
	require.NoError(t, err)
	items, _ = db.ListFoodForDay(ctx, 1, "2026-03-01")
	assert.Empty(t, items)

	p, _ := db.GetProfile(ctx, 1)
	require.NotNil(t, p)
	assert.True(t, p.Goals.Has(domain.GoalDiet))
}

func TestApplyReplaysDuplicateKey(t *testing.T) {
	ctx := context.Background()
	ts, db := newServer(t, true)
	client := syncclient.New(ts.URL, "")

	m := domain.Mutation{
		Key:        "7b0d3f7e-6c8f-4d0e-8e0b-8f4c0f0a1b2c",
		Kind:       domain.MutationAdd,
		Collection: domain.CollectionSymptoms,
		Payload:    json.RawMessage(`{"categories":{"skin":"clear"}}`),
	}
	id1, err := client.Apply(ctx, 1, m)
	require.NoError(t, err)
	id2, err := client.Apply(ctx, 1, m)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	items, _ := db.ListRecentSymptoms(ctx, 1, 10)
	assert.Len(t, items, 1)
}

func TestApplyReportsStatusErrors(t *testing.T) {
	ts, _ := newServer(t, true)
	client := syncclient.New(ts.URL, "")

	_, err := client.Apply(context.Background(), 1, domain.Mutation{Key: "k", Kind: domain.MutationAdd, Collection: "recipes"})
	var se *syncclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Message, "unknown collection")
}

func TestLoginThenApply(t *testing.T) {
	ctx := context.Background()
	ts, db := newServer(t, false)
	auth := app.NewAuthService(db, db.NewSessionRepo())
	require.NoError(t, auth.CreateInitialUser(ctx, "ana", "correct horse"))

	client := syncclient.New(ts.URL, "")
	_, err := client.Apply(ctx, 1, domain.Mutation{Key: "k1", Kind: domain.MutationAdd, Collection: domain.CollectionGoals, Payload: json.RawMessage(`{"tag":"acne"}`)})
	var se *syncclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)

	_, err = client.Login(ctx, "ana", "wrong password")
	require.Error(t, err)

	token, err := client.Login(ctx, "ana", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	id, err := client.Apply(ctx, 1, domain.Mutation{Key: "k1", Kind: domain.MutationAdd, Collection: domain.CollectionGoals, Payload: json.RawMessage(`{"tag":"acne"}`)})
	require.NoError(t, err)
	assert.Equal(t, "acne", id)
}

func TestPing(t *testing.T) {
	ts, _ := newServer(t, false)
	client := syncclient.New(ts.URL, "")
	require.NoError(t, client.Ping(context.Background()), "health needs no session")

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer down.Close()
	var se *syncclient.StatusError
	require.ErrorAs(t, syncclient.New(down.URL, "").Ping(context.Background()), &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)

	down.Close()
	assert.Error(t, syncclient.New(down.URL, "").Ping(context.Background()))
}
