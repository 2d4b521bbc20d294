package api

import (
	"time"

	"github.com/phrazzld/scry-bootstrap/internal/bootstrap"
	"github.com/phrazzld/scry-bootstrap/internal/events"
	"github.com/phrazzld/scry-bootstrap/internal/redact"
	"github.com/phrazzld/scry-bootstrap/internal/registry"
)

// UserStateResponse describes the recovered user.
type UserStateResponse struct {
	SignedIn    bool       `json:"signed_in"`
	UserID      string     `json:"user_id,omitempty"`
	Email       string     `json:"email,omitempty"`
	Source      string     `json:"source"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// RunResponse describes one bootstrap run.
type RunResponse struct {
	RunID      string            `json:"run_id"`
	Phase      bootstrap.Phase   `json:"phase"`
	Completed  bool              `json:"completed"`
	TotalTasks int               `json:"total_tasks"`
	ErrorCount int               `json:"error_count"`
	Errors     []string          `json:"errors,omitempty"`
	UserState  UserStateResponse `json:"user_state"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Error      string            `json:"error,omitempty"`
}

// StatusResponse is returned by GET /api/bootstrap/status.
type StatusResponse struct {
	Phase   bootstrap.Phase `json:"phase"`
	LastRun *RunResponse    `json:"last_run,omitempty"`
}

// ModuleResponse pairs a declared module with its registry state.
type ModuleResponse struct {
	Symbol    string             `json:"symbol"`
	URL       string             `json:"url,omitempty"`
	State     registry.LoadState `json:"state"`
	DefinedAt *time.Time         `json:"defined_at,omitempty"`
}

// ModulesResponse is returned by GET /api/bootstrap/modules.
type ModulesResponse struct {
	Modules []ModuleResponse `json:"modules"`
}

// EventsResponse is returned by GET /api/bootstrap/events.
type EventsResponse struct {
	Events []*events.Event `json:"events"`
}

// NewRunResponse converts a bootstrap result. Task failure messages are redacted.
func NewRunResponse(result bootstrap.Result) RunResponse {
	resp := RunResponse{
		RunID:      result.RunID.String(),
		Phase:      result.Phase,
		Completed:  result.Status.Completed,
		TotalTasks: result.Status.TotalTasks,
		ErrorCount: result.Status.ErrorCount,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		UserState: UserStateResponse{
			Source: result.UserState.SourceName,
		},
	}

	for _, msg := range result.Status.ErrorMessages() {
		resp.Errors = append(resp.Errors, redact.String(msg))
	}

	if id := result.UserState.Identity; id.Valid() {
		confirmed := result.UserState.ConfirmedAt
		resp.UserState.SignedIn = true
		resp.UserState.UserID = id.ID
		resp.UserState.Email = id.Email
		resp.UserState.ConfirmedAt = &confirmed
	}
	return resp
}

// newModulesResponse lists declared modules in load order, followed by any
// symbol defined in the registry that no declared module accounts for.
func newModulesResponse(declared []bootstrap.ModuleSpec, symbols []registry.Symbol) ModulesResponse {
	bySymbol := make(map[string]registry.Symbol, len(symbols))
	for _, s := range symbols {
		bySymbol[s.Name] = s
	}

	resp := ModulesResponse{Modules: make([]ModuleResponse, 0, len(declared)+len(symbols))}
	seen := make(map[string]bool, len(declared))
	for _, m := range declared {
		if seen[m.Symbol] {
			continue
		}
		seen[m.Symbol] = true

		mr := ModuleResponse{Symbol: m.Symbol, URL: m.URL, State: registry.StateAbsent}
		if s, ok := bySymbol[m.Symbol]; ok {
			mr.State = s.State
			mr.DefinedAt = definedAt(s)
		}
		resp.Modules = append(resp.Modules, mr)
	}

	for _, s := range symbols {
		if seen[s.Name] {
			continue
		}
		resp.Modules = append(resp.Modules, ModuleResponse{
			Symbol:    s.Name,
			State:     s.State,
			DefinedAt: definedAt(s),
		})
	}
	return resp
}

func definedAt(s registry.Symbol) *time.Time {
	if s.DefinedAt.IsZero() {
		return nil
	}
	t := s.DefinedAt
	return &t
}
