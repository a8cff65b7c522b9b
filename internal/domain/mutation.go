package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedMutation is returned for a kind a collection does not
// accept, e.g. updating a weight event.
var ErrUnsupportedMutation = errors.New("unsupported mutation")

// MutationKind tags the variant of a Mutation.
type MutationKind string

const (
	MutationAdd    MutationKind = "add"
	MutationUpdate MutationKind = "update"
	MutationDelete MutationKind = "delete"
)

// Collections that accept mutations.
const (
	CollectionFood     = "foodEntries"
	CollectionWeights  = "weights"
	CollectionSymptoms = "symptoms"
	CollectionGoals    = "goals"
)

// AllGoalsRecord is the record id that addresses every goal tag at once.
const AllGoalsRecord = "*"

// LocalIDPrefix marks record ids minted on a client for records the server
// has not assigned an id yet.
const LocalIDPrefix = "tmp_"

// collectionKinds lists the mutation kinds each collection accepts.
var collectionKinds = map[string][]MutationKind{
	CollectionFood:     {MutationAdd, MutationUpdate, MutationDelete},
	CollectionWeights:  {MutationAdd, MutationDelete},
	CollectionSymptoms: {MutationAdd, MutationDelete},
	CollectionGoals:    {MutationAdd, MutationDelete},
}

// KnownCollection reports whether name is a collection mutations can target.
func KnownCollection(name string) bool {
	switch name {
	case CollectionFood, CollectionWeights, CollectionSymptoms, CollectionGoals:
		return true
	}
	return false
}

// Mutation is a write against a per-user collection. Key is an idempotency
// key: applying the same key twice has the effect of applying it once.
type Mutation struct {
	Key        string          `json:"key"`
	Kind       MutationKind    `json:"kind"`
	Collection string          `json:"collection"`
	RecordID   string          `json:"recordId,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	QueuedAt   time.Time       `json:"queuedAt"`
}

// Validate checks that m is something the server can apply: the collection
// accepts the kind, record ids have the right form and payloads are JSON
// objects. A goal Add must name a known tag.
func (m Mutation) Validate() error {
	if m.Key == "" {
		return fmt.Errorf("mutation: missing key")
	}
	if !KnownCollection(m.Collection) {
		return fmt.Errorf("mutation: unknown collection %q", m.Collection)
	}
	switch m.Kind {
	case MutationAdd, MutationUpdate, MutationDelete:
	default:
		return fmt.Errorf("mutation: unknown kind %q", m.Kind)
	}
	if !accepts(m.Collection, m.Kind) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedMutation, m.Kind, m.Collection)
	}

	if m.Kind != MutationAdd {
		if m.RecordID == "" {
			return fmt.Errorf("mutation: %s on %s requires a record id", m.Kind, m.Collection)
		}
		if !validRecordID(m.Collection, m.RecordID) {
			return fmt.Errorf("mutation: invalid record id %q for %s", m.RecordID, m.Collection)
		}
	}
	if m.Kind == MutationDelete {
		return nil
	}

	var fields map[string]json.RawMessage
	if len(m.Payload) == 0 || json.Unmarshal(m.Payload, &fields) != nil || fields == nil {
		return fmt.Errorf("mutation: %s on %s requires an object payload", m.Kind, m.Collection)
	}
	if m.Collection == CollectionGoals {
		var tag GoalTag
		if err := json.Unmarshal(fields["tag"], &tag); err != nil || !tag.Valid() {
			return fmt.Errorf("mutation: unknown goal %s", fields["tag"])
		}
	}
	return nil
}

func accepts(collection string, kind MutationKind) bool {
	for _, k := range collectionKinds[collection] {
		if k == kind {
			return true
		}
	}
	return false
}

func validRecordID(collection, id string) bool {
	if strings.HasPrefix(id, LocalIDPrefix) {
		return true
	}
	if collection == CollectionGoals {
		return id == AllGoalsRecord || GoalTag(id).Valid()
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return err == nil && n > 0
}

// AppliedMutation is a ledger row recording that a key has been applied.
type AppliedMutation struct {
	Key       string
	UserID    int64
	RemoteID  string
	AppliedAt time.Time
}

// MutationLedger is the port for the processed-mutation ledger.
type MutationLedger interface {
	LookupMutation(ctx context.Context, userID int64, key string) (*AppliedMutation, error)
	RecordMutation(ctx context.Context, m AppliedMutation) error
}
