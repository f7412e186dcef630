package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// maxInboundBytes caps the size of a POST /v1/inbound body.
const maxInboundBytes = 64 << 10

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/inbound", s.handleInbound)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// InboundResponse is the body returned by POST /v1/inbound.
type InboundResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// handleInbound handles POST /v1/inbound. The router's classification is
// reported in the body; the status is 200 whenever the event was decoded.
func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxInboundBytes)

	var ev model.InboundEvent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Handling continues if the caller disconnects mid-request.
	outcome, err := s.Dispatch(context.WithoutCancel(r.Context()), ev)
	resp := InboundResponse{Outcome: outcome}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// StatusResponse is the body returned by GET /v1/status.
type StatusResponse struct {
	TakenAt         time.Time        `json:"taken_at"`
	Operator        model.ClientID   `json:"operator"`
	PendingRequests []PendingRequest `json:"pending_requests"`
	PendingProofs   int              `json:"pending_proofs"`
	Confirmed       []model.ClientID `json:"confirmed"`
}

// PendingRequest is one entry of StatusResponse.PendingRequests.
type PendingRequest struct {
	ClientID    model.ClientID `json:"client_id"`
	RequestedAt time.Time      `json:"requested_at"`
}

// handleStatus handles GET /v1/status. Proof contents are never exposed.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.Router.Snapshot()

	pending := make([]PendingRequest, 0, len(snap.Requests))
	for _, req := range snap.Requests {
		pending = append(pending, PendingRequest{ClientID: req.ClientID, RequestedAt: req.RequestedAt})
	}
	confirmed := snap.Confirmed
	if confirmed == nil {
		confirmed = []model.ClientID{}
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		TakenAt:         snap.TakenAt,
		Operator:        s.Router.Operator(),
		PendingRequests: pending,
		PendingProofs:   len(snap.Proofs),
		Confirmed:       confirmed,
	})
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
