package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nutramind/internal/domain"
)

var (
	// ErrUnknownCollection is returned for mutations against a collection the
	// server does not know.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnsupportedMutation is returned for a kind a collection does not
	// accept, e.g. updating a weight event.
	ErrUnsupportedMutation = domain.ErrUnsupportedMutation
)

// AllGoals is the record id that addresses every goal tag at once.
const AllGoals = domain.AllGoalsRecord

// Sync outcomes reported to the SyncObserver.
const (
	SyncApplied  = "applied"
	SyncReplayed = "replayed"
	SyncFailed   = "failed"
)

// SyncObserver is notified of every mutation the SyncService handles.
type SyncObserver interface {
	ObserveSync(collection, outcome string)
}

// SyncResult describes the outcome of applying one mutation.
type SyncResult struct {
	Key      string `json:"key"`
	RemoteID string `json:"remoteId"`
	Replayed bool   `json:"replayed"`
}

// SyncService applies mutations that were queued by offline clients. Every
// mutation carries an idempotency key; a key that has already been applied
// is acknowledged again without touching any collection.
type SyncService struct {
	ledger   domain.MutationLedger
	food     *FoodService
	weights  *WeightService
	symptoms *SymptomService
	profiles *ProfileService
	observer SyncObserver
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewSyncService wires a SyncService. observer may be nil.
func NewSyncService(ledger domain.MutationLedger, food *FoodService, weights *WeightService, symptoms *SymptomService, profiles *ProfileService, observer SyncObserver, log zerolog.Logger) *SyncService {
	return &SyncService{
		ledger:   ledger,
		food:     food,
		weights:  weights,
		symptoms: symptoms,
		profiles: profiles,
		observer: observer,
		log:      log,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// userLock serialises applies per user so that the ledger check and the
// write it guards cannot interleave for the same key.
func (s *SyncService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Apply executes m for userID unless its key has been applied before.
func (s *SyncService) Apply(ctx context.Context, userID int64, m domain.Mutation) (*SyncResult, error) {
	if err := m.Validate(); err != nil {
		switch {
		case !domain.KnownCollection(m.Collection):
			return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, m.Collection)
		case errors.Is(err, ErrUnsupportedMutation):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	prev, err := s.ledger.LookupMutation(ctx, userID, m.Key)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		s.observe(m.Collection, SyncReplayed)
		return &SyncResult{Key: m.Key, RemoteID: prev.RemoteID, Replayed: true}, nil
	}

	remoteID, err := s.dispatch(ctx, userID, m)
	if err != nil {
		s.observe(m.Collection, SyncFailed)
		s.log.Warn().Err(err).
			Int64("user", userID).
			Str("key", m.Key).
			Str("kind", string(m.Kind)).
			Str("collection", m.Collection).
			Msg("sync apply failed")
		return nil, err
	}
	if err := s.ledger.RecordMutation(ctx, domain.AppliedMutation{
		Key:       m.Key,
		UserID:    userID,
		RemoteID:  remoteID,
		AppliedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record mutation %s: %w", m.Key, err)
	}
	s.observe(m.Collection, SyncApplied)
	return &SyncResult{Key: m.Key, RemoteID: remoteID}, nil
}

func (s *SyncService) observe(collection, outcome string) {
	if s.observer != nil {
		s.observer.ObserveSync(collection, outcome)
	}
}

func (s *SyncService) dispatch(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	switch m.Collection {
	case domain.CollectionFood:
		return s.applyFood(ctx, userID, m)
	case domain.CollectionWeights:
		return s.applyWeight(ctx, userID, m)
	case domain.CollectionSymptoms:
		return s.applySymptom(ctx, userID, m)
	case domain.CollectionGoals:
		return s.applyGoal(ctx, userID, m)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, m.Collection)
}

type foodPayload struct {
	Description string            `json:"description"`
	Day         string            `json:"day"`
	Time        string            `json:"time"`
	Nutrients   *domain.Nutrients `json:"nutrients"`
	Analysis    string            `json:"analysis"`
}

func (s *SyncService) applyFood(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	switch m.Kind {
	case domain.MutationAdd:
		var p foodPayload
		if err := decodePayload(m.Payload, &p); err != nil {
			return "", err
		}
		var (
			e   *domain.FoodEntry
			err error
		)
		if p.Nutrients != nil {
			e, err = s.food.LogFoodWithNutrients(ctx, userID, p.Description, p.Day, p.Time, *p.Nutrients, p.Analysis)
		} else {
			e, err = s.food.LogFood(ctx, userID, p.Description, p.Day, p.Time)
		}
		if err != nil {
			return "", err
		}
		return formatID(e.ID), nil
	case domain.MutationUpdate:
		id, err := parseID(m.RecordID)
		if err != nil {
			return "", err
		}
		var patch domain.FoodPatch
		if err := decodePayload(m.Payload, &patch); err != nil {
			return "", err
		}
		if _, err := s.food.UpdateEntry(ctx, userID, id, patch); err != nil {
			return "", err
		}
		return m.RecordID, nil
	default:
		id, err := parseID(m.RecordID)
		if err != nil {
			return "", err
		}
		if _, err := s.food.DeleteEntry(ctx, userID, id); err != nil {
			return "", err
		}
		return m.RecordID, nil
	}
}

func (s *SyncService) applyWeight(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	switch m.Kind {
	case domain.MutationAdd:
		var p struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		}
		if err := decodePayload(m.Payload, &p); err != nil {
			return "", err
		}
		id, _, _, err := s.weights.RecordWeight(ctx, userID, p.Value, p.Unit)
		if err != nil {
			return "", err
		}
		return formatID(id), nil
	case domain.MutationDelete:
		id, err := parseID(m.RecordID)
		if err != nil {
			return "", err
		}
		if _, err := s.weights.Delete(ctx, userID, id); err != nil {
			return "", err
		}
		return m.RecordID, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrUnsupportedMutation, m.Kind, m.Collection)
}

func (s *SyncService) applySymptom(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	switch m.Kind {
	case domain.MutationAdd:
		var p struct {
			Day        string            `json:"day"`
			Categories map[string]string `json:"categories"`
			Notes      string            `json:"notes"`
		}
		if err := decodePayload(m.Payload, &p); err != nil {
			return "", err
		}
		id, err := s.symptoms.Record(ctx, userID, p.Day, p.Categories, p.Notes)
		if err != nil {
			return "", err
		}
		return formatID(id), nil
	case domain.MutationDelete:
		id, err := parseID(m.RecordID)
		if err != nil {
			return "", err
		}
		if _, err := s.symptoms.Delete(ctx, userID, id); err != nil {
			return "", err
		}
		return m.RecordID, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrUnsupportedMutation, m.Kind, m.Collection)
}

func (s *SyncService) applyGoal(ctx context.Context, userID int64, m domain.Mutation) (string, error) {
	switch m.Kind {
	case domain.MutationAdd:
		var p struct {
			Tag domain.GoalTag `json:"tag"`
		}
		if err := decodePayload(m.Payload, &p); err != nil {
			return "", err
		}
		if err := s.profiles.SetGoal(ctx, userID, p.Tag, true); err != nil {
			return "", err
		}
		return string(p.Tag), nil
	case domain.MutationDelete:
		if m.RecordID == AllGoals {
			return AllGoals, s.profiles.ClearGoals(ctx, userID)
		}
		if err := s.profiles.SetGoal(ctx, userID, domain.GoalTag(m.RecordID), false); err != nil {
			return "", err
		}
		return m.RecordID, nil
	}
	return "", fmt.Errorf("%w: %s on %s", ErrUnsupportedMutation, m.Kind, m.Collection)
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return invalid("payload is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid("payload: %v", err)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("record id %q is not a committed id", s)
	}
	return id, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
