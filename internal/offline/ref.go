package offline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"nutramind/internal/domain"
)

// LocalIDPrefix marks identifiers minted on the client for records that the
// server has not seen yet.
const LocalIDPrefix = domain.LocalIDPrefix

// NewLocalID returns a fresh temporary identifier.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was minted by NewLocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// RefState is the phase of a record's identity.
type RefState uint8

const (
	// RefPending: the record exists only in the queue under a local id.
	RefPending RefState = iota + 1
	// RefCommitted: the server has assigned the record its id.
	RefCommitted
)

func (s RefState) String() string {
	switch s {
	case RefPending:
		return "pending"
	case RefCommitted:
		return "committed"
	}
	return "invalid"
}

// Ref is the identity of a record as seen by the client. The zero value is
// not a valid ref. A pending ref only becomes committed through
// Queue.Resolve, once the Add that created it has been applied remotely.
type Ref struct {
	state RefState
	id    string
}

// Pending returns a ref for a record known only by its local id.
func Pending(localID string) Ref {
	return Ref{state: RefPending, id: localID}
}

// Committed returns a ref for a record the server has assigned remoteID.
func Committed(remoteID string) Ref {
	return Ref{state: RefCommitted, id: remoteID}
}

// State reports the phase of r.
func (r Ref) State() RefState { return r.state }

// IsPending reports whether r still names a local id.
func (r Ref) IsPending() bool { return r.state == RefPending }

// ID returns the local id of a pending ref or the remote id of a committed
// one.
func (r Ref) ID() string { return r.id }

func (r Ref) String() string {
	return r.state.String() + ":" + r.id
}

type refJSON struct {
	State string `json:"state"`
	ID    string `json:"id"`
}

// MarshalJSON encodes r as {"state": "...", "id": "..."}.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(refJSON{State: r.state.String(), ID: r.id})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *Ref) UnmarshalJSON(b []byte) error {
	var v refJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.State {
	case "pending":
		*r = Pending(v.ID)
	case "committed":
		*r = Committed(v.ID)
	default:
		return fmt.Errorf("offline: unknown ref state %q", v.State)
	}
	return nil
}
