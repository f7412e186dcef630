package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	// captured from the request
	method      string
	path        string
	query       string
	body        string
	contentType string
	auth        string

	// canned response
	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.contentType = r.Header.Get("Content-Type")
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(h http.Handler) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewHTTPClient(srv.URL, "")
	return c, srv
}

// --- SendEvent ---

func TestHTTPClient_SendEvent(t *testing.T) {
	h := &testHandler{
		responseBody: `{"outcome":"ok"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	res, err := c.SendEvent(context.Background(), model.InboundEvent{
		Kind:    model.EventCommand,
		From:    42,
		Command: "proof",
		Args:    "receipt #7",
	})
	if err != nil {
		t.Fatalf("SendEvent() error = %v", err)
	}

	if h.method != http.MethodPost {
		t.Errorf("method = %q, want POST", h.method)
	}
	if h.path != "/v1/inbound" {
		t.Errorf("path = %q, want /v1/inbound", h.path)
	}
	if h.contentType != "application/json" {
		t.Errorf("content-type = %q, want application/json", h.contentType)
	}

	var sent model.InboundEvent
	if err := json.Unmarshal([]byte(h.body), &sent); err != nil {
		t.Fatalf("failed to unmarshal request body: %v", err)
	}
	if sent.Kind != model.EventCommand || sent.From != 42 || sent.Command != "proof" || sent.Args != "receipt #7" {
		t.Errorf("sent event = %+v", sent)
	}
	if strings.Contains(h.body, "reply_to") {
		t.Errorf("empty fields should be omitted, body = %s", h.body)
	}

	if !res.OK() {
		t.Errorf("result = %+v, want ok", res)
	}
}

func TestHTTPClient_SendEvent_NonOKOutcome(t *testing.T) {
	h := &testHandler{
		responseBody: `{"outcome":"stale","error":"request no longer pending"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	res, err := c.SendEvent(context.Background(), model.InboundEvent{Kind: model.EventAction, From: 1, Data: "signal_unavailable"})
	if err != nil {
		t.Fatalf("SendEvent() error = %v", err)
	}
	if res.OK() {
		t.Fatal("expected non-ok result")
	}
	if res.Outcome != "stale" || res.Error != "request no longer pending" {
		t.Errorf("result = %+v", res)
	}
}

// --- Status ---

func TestHTTPClient_Status(t *testing.T) {
	h := &testHandler{
		responseBody: `{
			"taken_at": "2026-01-02T03:04:05Z",
			"operator": 1,
			"pending_requests": [{"client_id": 42, "requested_at": "2026-01-02T03:00:00Z"}],
			"pending_proofs": 3,
			"confirmed": [7, 9]
		}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if h.method != http.MethodGet {
		t.Errorf("method = %q, want GET", h.method)
	}
	if h.path != "/v1/status" {
		t.Errorf("path = %q, want /v1/status", h.path)
	}

	if st.Operator != 1 {
		t.Errorf("operator = %d, want 1", st.Operator)
	}
	if len(st.PendingRequests) != 1 || st.PendingRequests[0].ClientID != 42 {
		t.Errorf("pending requests = %+v", st.PendingRequests)
	}
	if st.PendingProofs != 3 {
		t.Errorf("pending proofs = %d, want 3", st.PendingProofs)
	}
	if len(st.Confirmed) != 2 || st.Confirmed[0] != 7 || st.Confirmed[1] != 9 {
		t.Errorf("confirmed = %v", st.Confirmed)
	}
	if st.TakenAt.IsZero() {
		t.Error("taken_at should be parsed")
	}
}

// --- Health ---

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{
		responseBody: `{"status": "ok"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	if h.method != http.MethodGet {
		t.Errorf("method = %q, want GET", h.method)
	}
	if h.path != "/v1/health" {
		t.Errorf("path = %q, want /v1/health", h.path)
	}

	if status != "ok" {
		t.Errorf("status = %q, want 'ok'", status)
	}
}

// --- StreamEvents ---

func TestHTTPClient_StreamEvents(t *testing.T) {
	var gotQuery, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("topics")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": connected\n\n")
		_, _ = io.WriteString(w, "id:1\nevent:signalgate.request.registered\ndata:{\"client_id\":42}\n\n")
		_, _ = io.WriteString(w, "id:2\nevent:signalgate.recipient.confirmed\ndata:{\"client_id\":42}\n\n")
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	var got []Event
	err := c.StreamEvents(context.Background(), []string{"signalgate.request.*", "signalgate.recipient.*"}, func(e Event) error {
		got = append(got, e)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamEvents() error = %v", err)
	}

	if gotQuery != "signalgate.request.*,signalgate.recipient.*" {
		t.Errorf("topics = %q", gotQuery)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("accept = %q", gotAccept)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].ID != 1 || got[0].Topic != "signalgate.request.registered" || string(got[0].Data) != `{"client_id":42}` {
		t.Errorf("event[0] = %+v", got[0])
	}
	if got[1].ID != 2 || got[1].Topic != "signalgate.recipient.confirmed" {
		t.Errorf("event[1] = %+v", got[1])
	}
}

func TestHTTPClient_StreamEvents_CallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "id:1\nevent:a\ndata:{}\n\nid:2\nevent:b\ndata:{}\n\n")
	}))
	defer srv.Close()

	stop := errors.New("stop")
	calls := 0
	err := NewHTTPClient(srv.URL, "").StreamEvents(context.Background(), nil, func(Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("error = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestHTTPClient_StreamEvents_Unauthorized(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusUnauthorized,
		responseBody: `{"error": "missing authorization header"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	err := c.StreamEvents(context.Background(), nil, func(Event) error { return nil })
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
	if h.query != "" {
		t.Errorf("query = %q, want empty without topics", h.query)
	}
}

// --- Auth ---

func TestHTTPClient_BearerToken(t *testing.T) {
	h := &testHandler{responseBody: `{"status": "ok"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()

	if _, err := NewHTTPClient(srv.URL, "secret").Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.auth != "Bearer secret" {
		t.Errorf("authorization = %q, want 'Bearer secret'", h.auth)
	}

	if _, err := NewHTTPClient(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if h.auth != "" {
		t.Errorf("authorization = %q, want empty", h.auth)
	}
}

// --- Error handling ---

func TestHTTPClient_Error_JSONBody(t *testing.T) {
	h := &testHandler{
		statusCode:   http.StatusBadRequest,
		responseBody: `{"error": "invalid request body"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.SendEvent(context.Background(), model.InboundEvent{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "invalid request body" {
		t.Errorf("message = %q, want 'invalid request body'", apiErr.Message)
	}
}

func TestHTTPClient_Error_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error\n"))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.Status(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.StatusCode)
	}
	if apiErr.Message != "internal server error" {
		t.Errorf("message = %q, want 'internal server error'", apiErr.Message)
	}
}

func TestHTTPClient_Error_FormatString(t *testing.T) {
	err := &APIError{StatusCode: 413, Message: "request body too large"}
	want := "HTTP 413: request body too large"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestHTTPClient_Error_CanceledContext(t *testing.T) {
	h := &testHandler{
		responseBody: `{"status": "ok"}`,
	}
	c, srv := newTestClient(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.Health(ctx)
	if err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestHTTPClient_Error_BadJSON(t *testing.T) {
	h := &testHandler{responseBody: `{"outcome":`}
	c, srv := newTestClient(h)
	defer srv.Close()

	_, err := c.SendEvent(context.Background(), model.InboundEvent{Kind: model.EventCommand, From: 2, Command: "request"})
	if err == nil || !strings.Contains(err.Error(), "decoding response") {
		t.Fatalf("error = %v, want decoding error", err)
	}
}

// --- Close ---

func TestHTTPClient_Close(t *testing.T) {
	c := NewHTTPClient("http://localhost:9999", "")
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

// --- NewHTTPClient base URL trimming ---

func TestNewHTTPClient_TrimsTrailingSlash(t *testing.T) {
	c := NewHTTPClient("http://localhost:8080/", "")
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q, want 'http://localhost:8080'", c.baseURL)
	}
}

// --- Concurrent requests ---

func TestHTTPClient_ConcurrentRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := c.Health(context.Background())
			errs <- err
		}()
	}

	for i := 0; i < 10; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent Health() error = %v", err)
		}
	}
}
