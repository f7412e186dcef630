package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"google.golang.org/grpc/health"

	"github.com/alfredjeanlab/signalgate/internal/model"
	"github.com/alfredjeanlab/signalgate/internal/router"
)

// Server exposes a Router over HTTP and gRPC and fans its audit events out
// to SSE clients.
type Server struct {
	Router *router.Router
	Health *health.Server

	sseHub *sseHub
	logger *slog.Logger
}

// New builds the Router from cfg and wraps it. cfg.Observer is replaced so
// every router event also reaches the SSE stream.
func New(cfg router.Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Health: health.NewServer(),
		sseHub: newSSEHub(),
		logger: logger,
	}
	cfg.Logger = logger
	cfg.Observer = s.broadcastEvent
	s.Router = router.New(cfg)
	return s
}

// Dispatch hands one inbound event to the router and returns its outcome
// class.
func (s *Server) Dispatch(ctx context.Context, ev model.InboundEvent) (string, error) {
	err := s.Router.Handle(ctx, ev)
	return router.Outcome(err), err
}

// HandleInbound is the gateway.DispatchFunc used by the NATS listener.
func (s *Server) HandleInbound(ctx context.Context, ev model.InboundEvent) {
	_, _ = s.Dispatch(ctx, ev)
}

// broadcastEvent fans a router event out to SSE clients.
func (s *Server) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
