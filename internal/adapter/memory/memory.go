// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nutramind/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	weights   []domain.WeightEntry
	food      []domain.FoodEntry
	symptoms  []domain.SymptomEntry
	profiles  map[int64]domain.UserProfile
	mutations map[ledgerKey]domain.AppliedMutation
	users     []*domain.User
	sessions  map[string]*domain.Session

	weightIDCounter  int64
	foodIDCounter    int64
	symptomIDCounter int64
	userIDCounter    int64
}

type ledgerKey struct {
	userID int64
	key    string
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		profiles:  make(map[int64]domain.UserProfile),
		mutations: make(map[ledgerKey]domain.AppliedMutation),
		sessions:  make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var (
	_ domain.WeightRepository  = (*DB)(nil)
	_ domain.FoodRepository    = (*DB)(nil)
	_ domain.SymptomRepository = (*DB)(nil)
	_ domain.ProfileRepository = (*DB)(nil)
	_ domain.MutationLedger    = (*DB)(nil)
	_ domain.UserRepository    = (*DB)(nil)
	_ domain.SessionRepository = (*SessionRepo)(nil)
)

func dayBounds(localDay string) (time.Time, time.Time, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", localDay, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC(), nil
}

// --- WeightRepository ---

// AddWeightEvent adds a weight event.
func (db *DB) AddWeightEvent(ctx context.Context, userID int64, value float64, unit string, createdAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.weightIDCounter++
	db.weights = append(db.weights, domain.WeightEntry{
		ID:        db.weightIDCounter,
		UserID:    userID,
		Value:     value,
		Unit:      unit,
		CreatedAt: createdAt.UTC(),
	})
	return db.weightIDCounter, nil
}

// DeleteWeightEvent deletes a weight event by ID.
func (db *DB) DeleteWeightEvent(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, w := range db.weights {
		if w.ID == id && w.UserID == userID {
			db.weights = append(db.weights[:i], db.weights[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// DeleteLatestWeightEvent deletes the most recent weight event of a user.
func (db *DB) DeleteLatestWeightEvent(ctx context.Context, userID int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lastIdx := -1
	for i, w := range db.weights {
		if w.UserID != userID {
			continue
		}
		if lastIdx == -1 || w.CreatedAt.After(db.weights[lastIdx].CreatedAt) {
			lastIdx = i
		}
	}
	if lastIdx == -1 {
		return false, nil
	}
	db.weights = append(db.weights[:lastIdx], db.weights[lastIdx+1:]...)
	return true, nil
}

// LatestWeightForLocalDay returns the latest weight for the given day.
func (db *DB) LatestWeightForLocalDay(ctx context.Context, userID int64, localDay string) (*domain.WeightEntry, error) {
	start, end, err := dayBounds(localDay)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var latest *domain.WeightEntry
	for i := range db.weights {
		w := &db.weights[i]
		if w.UserID != userID || w.CreatedAt.Before(start) || !w.CreatedAt.Before(end) {
			continue
		}
		if latest == nil || w.CreatedAt.After(latest.CreatedAt) {
			latest = w
		}
	}
	if latest == nil {
		return nil, nil
	}
	ret := *latest
	ret.Day = localDay
	return &ret, nil
}

// ListRecentWeightEvents lists the most recent weight events.
func (db *DB) ListRecentWeightEvents(ctx context.Context, userID int64, limit int) ([]domain.WeightEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.WeightEntry, 0, len(db.weights))
	for _, w := range db.weights {
		if w.UserID == userID {
			w.Day = w.CreatedAt.In(time.Local).Format("2006-01-02")
			result = append(result, w)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- FoodRepository ---

// AddFoodEntry stores a food entry and returns its id.
func (db *DB) AddFoodEntry(ctx context.Context, e domain.FoodEntry) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.foodIDCounter++
	e.ID = db.foodIDCounter
	e.CreatedAt = e.CreatedAt.UTC()
	db.food = append(db.food, e)
	return e.ID, nil
}

// GetFoodEntry returns a copy of an entry, or nil if it does not exist.
func (db *DB) GetFoodEntry(ctx context.Context, userID, id int64) (*domain.FoodEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.food {
		if e.ID == id && e.UserID == userID {
			return &e, nil
		}
	}
	return nil, nil
}

// UpdateFoodEntry overwrites an existing entry.
func (db *DB) UpdateFoodEntry(ctx context.Context, e domain.FoodEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.food {
		if db.food[i].ID == e.ID && db.food[i].UserID == e.UserID {
			db.food[i] = e
			return nil
		}
	}
	return errors.New("food entry not found")
}

// DeleteFoodEntry removes an entry.
func (db *DB) DeleteFoodEntry(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, e := range db.food {
		if e.ID == id && e.UserID == userID {
			db.food = append(db.food[:i], db.food[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListFoodForDay returns a user's entries for a day in logging order.
func (db *DB) ListFoodForDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.FoodEntry{}
	for _, e := range db.food {
		if e.UserID == userID && e.Day == day {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecentFood returns a user's most recent entries.
func (db *DB) ListRecentFood(ctx context.Context, userID int64, limit int) ([]domain.FoodEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.FoodEntry{}
	for i := len(db.food) - 1; i >= 0 && len(out) < limit; i-- {
		if db.food[i].UserID == userID {
			out = append(out, db.food[i])
		}
	}
	return out, nil
}

// --- SymptomRepository ---

// AddSymptom stores a symptom entry.
func (db *DB) AddSymptom(ctx context.Context, e domain.SymptomEntry) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.symptomIDCounter++
	e.ID = db.symptomIDCounter
	db.symptoms = append(db.symptoms, e)
	return e.ID, nil
}

// DeleteSymptom removes a symptom entry.
func (db *DB) DeleteSymptom(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, e := range db.symptoms {
		if e.ID == id && e.UserID == userID {
			db.symptoms = append(db.symptoms[:i], db.symptoms[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ListRecentSymptoms returns a user's most recent symptom entries.
func (db *DB) ListRecentSymptoms(ctx context.Context, userID int64, limit int) ([]domain.SymptomEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := []domain.SymptomEntry{}
	for i := len(db.symptoms) - 1; i >= 0 && len(out) < limit; i-- {
		if db.symptoms[i].UserID == userID {
			out = append(out, db.symptoms[i])
		}
	}
	return out, nil
}

// --- ProfileRepository ---

// GetProfile returns a copy of the stored profile or nil.
func (db *DB) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.profiles[userID]
	if !ok {
		return nil, nil
	}
	p.Goals = domain.NewGoalSet(p.Goals.Tags()...)
	return &p, nil
}

// SaveProfile stores a copy of p.
func (db *DB) SaveProfile(ctx context.Context, p *domain.UserProfile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cp := *p
	cp.Goals = domain.NewGoalSet(p.Goals.Tags()...)
	db.profiles[p.UserID] = cp
	return nil
}

// --- MutationLedger ---

// LookupMutation returns the ledger row for key, or nil.
func (db *DB) LookupMutation(ctx context.Context, userID int64, key string) (*domain.AppliedMutation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	m, ok := db.mutations[ledgerKey{userID, key}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// RecordMutation stores a ledger row. Recording a key twice keeps the first.
func (db *DB) RecordMutation(ctx context.Context, m domain.AppliedMutation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := ledgerKey{m.UserID, m.Key}
	if _, ok := db.mutations[k]; !ok {
		db.mutations[k] = m
	}
	return nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, domain.ErrUserExists
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions and reports how many.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	n := 0
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}
