package recovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// ProfileSourceName is the name recorded for identities recovered from a cached profile.
const ProfileSourceName = "profile"

// ProfileSource recovers the identity from a cached profile persisted as a
// JSON Identity under a store key.
type ProfileSource struct {
	store    store.StateStore
	key      string
	priority int
}

// NewProfileSource creates a ProfileSource reading key from st.
func NewProfileSource(st store.StateStore, key string, priority int) *ProfileSource {
	return &ProfileSource{store: st, key: key, priority: priority}
}

// Name implements Source.
func (s *ProfileSource) Name() string { return ProfileSourceName }

// Priority implements Source.
func (s *ProfileSource) Priority() int { return s.priority }

// Fetch implements Source. A missing profile is not an error.
func (s *ProfileSource) Fetch(ctx context.Context) (*Identity, error) {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &identity, nil
}
