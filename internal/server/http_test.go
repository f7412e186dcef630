package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alfredjeanlab/signalgate/internal/model"
	"github.com/alfredjeanlab/signalgate/internal/router"
	"github.com/alfredjeanlab/signalgate/internal/settings"
)

const testOperator model.ClientID = 1

// fakeGateway records sends and hands out sequential refs.
type fakeGateway struct {
	mu   sync.Mutex
	seq  int
	sent map[model.ClientID][]model.Message
	down bool
}

func (g *fakeGateway) Send(_ context.Context, to model.ClientID, msg model.Message) (model.MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.down {
		return "", errors.New("gateway down")
	}
	g.seq++
	g.sent[to] = append(g.sent[to], msg)
	return model.MessageRef(fmt.Sprintf("ref-%d", g.seq)), nil
}

func (g *fakeGateway) messages(to model.ClientID) []model.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Message(nil), g.sent[to]...)
}

func newTestServer(t *testing.T) (*Server, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{sent: make(map[model.ClientID][]model.Message)}
	srv := New(router.Config{
		Operator: testOperator,
		Gateway:  gw,
		Settings: settings.NewMemoryStore(),
	})
	return srv, gw
}

func postEvent(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/inbound", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeInbound(t *testing.T, rec *httptest.ResponseRecorder) InboundResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	var resp InboundResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleInbound_Outcomes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		body    string
		outcome string
	}{
		{"Request", `{"kind":"command","from":42,"command":"request"}`, "ok"},
		{"UnknownCommand", `{"kind":"command","from":42,"command":"dance"}`, "invalid"},
		{"NonOperatorAction", `{"kind":"action","from":42,"data":"signal_unavailable"}`, "denied"},
		{"StaleAction", `{"kind":"action","from":1,"data":"signal_available_9"}`, "stale"},
		{"BadActionData", `{"kind":"action","from":1,"data":"nope"}`, "invalid"},
		{"UnknownReply", `{"kind":"reply","from":1,"reply_to":"ref-x","text":"hi"}`, "stale"},
		{"MissingFrom", `{"kind":"command","command":"request"}`, "invalid"},
		{"NotConfirmed", `{"kind":"command","from":42,"command":"payment"}`, "denied"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			resp := decodeInbound(t, postEvent(t, srv.NewHTTPHandler(""), tc.body))
			if resp.Outcome != tc.outcome {
				t.Fatalf("outcome = %q (error %q), want %q", resp.Outcome, resp.Error, tc.outcome)
			}
			if tc.outcome != "ok" && resp.Error == "" {
				t.Fatal("expected error text for non-ok outcome")
			}
		})
	}
}

func TestHandleInbound_FullFlow(t *testing.T) {
	srv, gw := newTestServer(t)
	h := srv.NewHTTPHandler("")

	decodeInbound(t, postEvent(t, h, `{"kind":"command","from":1,"command":"setpayment","args":"Pay to X"}`))
	decodeInbound(t, postEvent(t, h, `{"kind":"command","from":42,"command":"request"}`))
	resp := decodeInbound(t, postEvent(t, h, `{"kind":"action","from":1,"data":"signal_available_42"}`))
	if resp.Outcome != "ok" {
		t.Fatalf("outcome = %q: %s", resp.Outcome, resp.Error)
	}

	msgs := gw.messages(42)
	if got := msgs[len(msgs)-1].Text; got != "Pay to X" {
		t.Fatalf("client 42 last message = %q", got)
	}
	if !srv.Router.IsConfirmed(42) {
		t.Fatal("client 42 should be confirmed")
	}
}

func TestHandleInbound_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")

	for _, body := range []string{`not json`, `{"kind":"command","from":"x"}`, `{"kind":"command","from":1,"extra":true}`} {
		rec := postEvent(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}

	rec := postEvent(t, h, `{"kind":"command","from":1,"command":"proof","args":"`+strings.Repeat("a", maxInboundBytes)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.NewHTTPHandler("")
	decodeInbound(t, postEvent(t, h, `{"kind":"command","from":42,"command":"request"}`))
	decodeInbound(t, postEvent(t, h, `{"kind":"command","from":7,"command":"proof","args":"secret receipt"}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret receipt") {
		t.Fatal("status must not expose proof content")
	}

	var resp StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Operator != testOperator {
		t.Errorf("operator = %d", resp.Operator)
	}
	if len(resp.PendingRequests) != 1 || resp.PendingRequests[0].ClientID != 42 {
		t.Errorf("pending requests = %+v", resp.PendingRequests)
	}
	if resp.PendingProofs != 1 {
		t.Errorf("pending proofs = %d", resp.PendingProofs)
	}
	if resp.Confirmed == nil || len(resp.Confirmed) != 0 {
		t.Errorf("confirmed = %#v, want empty list", resp.Confirmed)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.NewHTTPHandler("secret").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewHTTPHandler_RequiresAuth(t *testing.T) {
	srv, gw := newTestServer(t)
	h := srv.NewHTTPHandler("secret")

	rec := postEvent(t, h, `{"kind":"command","from":42,"command":"request"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(gw.messages(42)) != 0 || srv.Router.IsPending(42) {
		t.Fatal("unauthenticated request must not reach the router")
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/inbound", strings.NewReader(`{"kind":"command","from":42,"command":"request"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if resp := decodeInbound(t, rec); resp.Outcome != "ok" {
		t.Fatalf("outcome = %q", resp.Outcome)
	}
}

func TestHandleInbound_GatewayDown(t *testing.T) {
	srv, gw := newTestServer(t)
	gw.down = true

	resp := decodeInbound(t, postEvent(t, srv.NewHTTPHandler(""), `{"kind":"command","from":42,"command":"request"}`))
	if resp.Outcome != "delivery_failed" {
		t.Fatalf("outcome = %q", resp.Outcome)
	}
	if srv.Router.IsPending(42) {
		t.Fatal("request should be rolled back when the operator prompt fails")
	}
}
