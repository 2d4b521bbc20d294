package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/phrazzld/scry-bootstrap/internal/store"
)

// SessionSourceName is the name recorded for identities recovered from the session endpoint.
const SessionSourceName = "session"

const maxSessionBodyBytes = 1 << 20

// sessionResponse is the payload of the session-status endpoint.
type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	User          *struct {
		ID         string            `json:"id"`
		Email      string            `json:"email"`
		Attributes map[string]string `json:"attributes"`
	} `json:"user"`
}

// SessionSource asks the session-status endpoint who is signed in. A bearer
// credential is read from the store when one is persisted.
type SessionSource struct {
	client        *http.Client
	url           string
	store         store.StateStore
	credentialKey string
	priority      int
}

// NewSessionSource creates a SessionSource querying url. A nil client uses
// http.DefaultClient; the chain's source timeout bounds each request.
func NewSessionSource(
	client *http.Client,
	url string,
	st store.StateStore,
	credentialKey string,
	priority int,
) *SessionSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &SessionSource{
		client:        client,
		url:           url,
		store:         st,
		credentialKey: credentialKey,
		priority:      priority,
	}
}

// Name implements Source.
func (s *SessionSource) Name() string { return SessionSourceName }

// Priority implements Source.
func (s *SessionSource) Priority() int { return s.priority }

// Fetch implements Source. An unauthenticated session yields no identity.
func (s *SessionSource) Fetch(ctx context.Context) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	credential, err := s.credential(ctx)
	if err != nil {
		return nil, err
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("session endpoint returned status %d", resp.StatusCode)
	}

	var payload sessionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSessionBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if !payload.Authenticated || payload.User == nil {
		return nil, nil
	}

	return &Identity{
		ID:         payload.User.ID,
		Email:      payload.User.Email,
		Attributes: payload.User.Attributes,
	}, nil
}

func (s *SessionSource) credential(ctx context.Context) (string, error) {
	if s.store == nil || s.credentialKey == "" {
		return "", nil
	}
	credential, err := s.store.Get(ctx, s.credentialKey)
	if err != nil {
		if store.IsNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session credential: %w", err)
	}
	return credential, nil
}
