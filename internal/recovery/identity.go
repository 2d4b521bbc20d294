package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// SourceNone is the source name of a state with no identity.
const SourceNone = "none"

// Identity is the recovered user identity.
type Identity struct {
	ID         string            `json:"id"`
	Email      string            `json:"email,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Valid reports whether the identity carries a non-empty ID.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != ""
}

// Clone returns a deep copy of i.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Attributes = maps.Clone(i.Attributes)
	return &c
}

// Equal reports whether both identities describe the same user.
func (i *Identity) Equal(other *Identity) bool {
	if i == nil || other == nil {
		return i == other
	}
	return i.ID == other.ID && i.Email == other.Email && maps.Equal(i.Attributes, other.Attributes)
}

// UserState is the converged result of a recovery.
type UserState struct {
	Identity    *Identity `json:"identity"`
	SourceName  string    `json:"source"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// EmptyUserState returns the state of a signed-out user.
func EmptyUserState() UserState {
	return UserState{SourceName: SourceNone}
}

// Empty reports whether s carries no identity.
func (s UserState) Empty() bool {
	return !s.Identity.Valid()
}

// Equal compares identity and source. ConfirmedAt is the instant of
// confirmation and is not part of the converged value.
func (s UserState) Equal(other UserState) bool {
	return s.SourceName == other.SourceName && s.Identity.Equal(other.Identity)
}

// LoadState reads a persisted UserState back from st.
// Returns store.ErrStateNotFound (wrapped) when nothing was persisted.
func LoadState(ctx context.Context, st store.StateStore, key string) (UserState, error) {
	raw, err := st.Get(ctx, key)
	if err != nil {
		return EmptyUserState(), err
	}

	var state UserState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return EmptyUserState(), fmt.Errorf("failed to decode user state under %q: %w", key, err)
	}
	if state.SourceName == "" {
		state.SourceName = SourceNone
	}
	return state, nil
}
