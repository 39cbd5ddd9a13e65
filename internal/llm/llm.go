package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for the copilot stages.
type Client interface {
	// Complete returns free-text output for the given system and user prompts.
	Complete(ctx context.Context, system, user string) (string, error)
	// CompleteJSON returns output constrained to a single JSON object.
	CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
// Stages treat its errors as degraded collaborator calls and fall back.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, system, user string) (string, error) {
	_ = ctx
	_ = system
	_ = user
	return "", ErrNotImplemented
}

// CompleteJSON returns ErrNotImplemented.
func (PlaceholderClient) CompleteJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	_ = ctx
	_ = system
	_ = user
	return nil, ErrNotImplemented
}
