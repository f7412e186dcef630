// Package client talks to a running signalgate server over its HTTP/JSON API.
// The sgd tooling subcommands use it to inject events and inspect state.
package client

import (
	"context"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// Client is the interface the sgd subcommands use to reach the server.
type Client interface {
	// SendEvent posts an inbound event and returns the router's outcome.
	SendEvent(ctx context.Context, ev model.InboundEvent) (*InboundResult, error)
	// Status returns the current registry summary.
	Status(ctx context.Context) (*Status, error)
	// Health returns the server's health status string.
	Health(ctx context.Context) (string, error)
	// StreamEvents calls fn for each audit event until ctx is done or fn
	// returns an error.
	StreamEvents(ctx context.Context, topics []string, fn func(Event) error) error

	Close() error
}

// InboundResult is the server's classification of one inbound event.
type InboundResult struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the event was handled without error.
func (r *InboundResult) OK() bool { return r.Outcome == "ok" }

// Status is the registry summary returned by GET /v1/status.
type Status struct {
	TakenAt         time.Time        `json:"taken_at"`
	Operator        model.ClientID   `json:"operator"`
	PendingRequests []PendingRequest `json:"pending_requests"`
	PendingProofs   int              `json:"pending_proofs"`
	Confirmed       []model.ClientID `json:"confirmed"`
}

// PendingRequest is a request awaiting the operator's decision.
type PendingRequest struct {
	ClientID    model.ClientID `json:"client_id"`
	RequestedAt time.Time      `json:"requested_at"`
}

// Event is one audit event read from the SSE stream.
type Event struct {
	ID    uint64
	Topic string
	Data  []byte
}
