package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"chess-arena/internal/app/arena"
	"chess-arena/internal/app/channels"
	"chess-arena/internal/notify"
	"chess-arena/internal/store"
)

func newTestRouter() (*chi.Mux, *store.Memory, *notify.Recorder) {
	st := store.NewMemory()
	rec := &notify.Recorder{}
	svc := arena.NewService(st, rec, false)
	chanSvc := channels.NewService(st, rec)
	return newRouter(st, svc, chanSvc), st, rec
}

func postAction(t *testing.T, router http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/game/action", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestActionEndpointFullGameSetup(t *testing.T) {
	router, _, _ := newTestRouter()

	w := postAction(t, router, map[string]any{"action": "create", "playerId": "alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("create: status %d body %s", w.Code, w.Body)
	}
	created := decodeBody(t, w)
	sessionID, _ := created["sessionId"].(string)
	if sessionID == "" || created["color"] != "white" {
		t.Fatalf("create body: %v", created)
	}

	w = postAction(t, router, map[string]any{"action": "join", "playerId": "bob", "sessionId": sessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("join: status %d body %s", w.Code, w.Body)
	}
	joined := decodeBody(t, w)
	if joined["role"] != "spectator" || joined["canPlayAsOpponent"] != true {
		t.Fatalf("join body: %v", joined)
	}

	w = postAction(t, router, map[string]any{"action": "claim", "playerId": "bob", "sessionId": sessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("claim: status %d body %s", w.Code, w.Body)
	}
	claimed := decodeBody(t, w)
	if claimed["color"] != "black" || claimed["status"] != "active" {
		t.Fatalf("claim body: %v", claimed)
	}

	w = postAction(t, router, map[string]any{
		"action": "move", "playerId": "alice",
		"move": map[string]string{"from": "e2", "to": "e4"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("move: status %d body %s", w.Code, w.Body)
	}
	if moved := decodeBody(t, w); moved["ok"] != true {
		t.Fatalf("move body: %v", moved)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/game/status?sessionId="+sessionID, nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", w2.Code, w2.Body)
	}
	status := map[string]any{}
	if err := json.NewDecoder(w2.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["turn"] != "black" || status["status"] != "active" {
		t.Fatalf("status body: %v", status)
	}
}

func TestActionEndpointErrors(t *testing.T) {
	router, _, _ := newTestRouter()

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed json", "{", http.StatusBadRequest, "invalid_request"},
		{"missing player", `{"action":"create"}`, http.StatusBadRequest, "invalid_request"},
		{"unknown action", `{"action":"dance","playerId":"a"}`, http.StatusBadRequest, "unknown_action"},
		{"join without session", `{"action":"join","playerId":"a"}`, http.StatusBadRequest, "invalid_request"},
		{"claim missing session", `{"action":"claim","playerId":"a","sessionId":"nope"}`, http.StatusNotFound, "session_not_found"},
		{"move without seat", `{"action":"move","playerId":"a","move":{"from":"e2","to":"e4"}}`, http.StatusBadRequest, "not_assigned"},
		{"move without body", `{"action":"move","playerId":"a"}`, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/game/action", strings.NewReader(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.wantCode {
			t.Fatalf("%s: status %d, want %d (body %s)", tc.name, w.Code, tc.wantCode, w.Body)
		}
		if got := decodeBody(t, w)["error"]; got != tc.wantErr {
			t.Fatalf("%s: error %q, want %q", tc.name, got, tc.wantErr)
		}
	}
}

func TestSeatConflictIsConflictStatus(t *testing.T) {
	router, _, _ := newTestRouter()

	created := decodeBody(t, postAction(t, router, map[string]any{"action": "create", "playerId": "alice"}))
	sessionID := created["sessionId"].(string)
	if w := postAction(t, router, map[string]any{"action": "claim", "playerId": "bob", "sessionId": sessionID}); w.Code != http.StatusOK {
		t.Fatalf("claim: %d body %s", w.Code, w.Body)
	}
	w := postAction(t, router, map[string]any{"action": "claim", "playerId": "carol", "sessionId": sessionID})
	if w.Code != http.StatusConflict {
		t.Fatalf("late claim: status %d body %s", w.Code, w.Body)
	}
	if got := decodeBody(t, w)["error"]; got != "seat_taken" {
		t.Fatalf("late claim error: %v", got)
	}
}

func TestPusherAuthFormEncoded(t *testing.T) {
	router, _, _ := newTestRouter()

	form := url.Values{}
	form.Set("socket_id", "1.1")
	form.Set("channel_name", notify.PlayerChannel("alice"))
	form.Set("playerId", "alice")
	req := httptest.NewRequest(http.MethodPost, "/api/pusher/auth", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("auth: status %d body %s", w.Code, w.Body)
	}
	var token struct {
		Auth string `json:"auth"`
	}
	if err := json.NewDecoder(w.Body).Decode(&token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if token.Auth == "" {
		t.Fatalf("empty auth token")
	}
}

func TestPusherAuthJSONBody(t *testing.T) {
	router, _, _ := newTestRouter()

	body := `{"socket_id":"1.1","channel_name":"` + notify.PlayerChannel("alice") + `","playerId":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pusher/auth", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("auth: status %d body %s", w.Code, w.Body)
	}
}

func TestPusherAuthForbidden(t *testing.T) {
	router, _, _ := newTestRouter()

	body := `{"socket_id":"1.1","channel_name":"` + notify.PlayerChannel("bob") + `","playerId":"alice"}`
	req := httptest.NewRequest(http.MethodPost, "/api/pusher/auth", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign channel: status %d body %s", w.Code, w.Body)
	}
	if got := decodeBody(t, w)["error"]; got != "forbidden" {
		t.Fatalf("foreign channel error: %v", got)
	}
}

// outageStore simulates an unreachable backend for every read the handlers
// hit first.
type outageStore struct{ store.Store }

func (outageStore) GetSession(context.Context, string) (*store.Session, error) {
	return nil, fmt.Errorf("dial tcp: %w", store.ErrUnavailable)
}

func (outageStore) GetAssignment(context.Context, string) (*store.Assignment, error) {
	return nil, fmt.Errorf("dial tcp: %w", store.ErrUnavailable)
}

func (outageStore) Ping(context.Context) error {
	return fmt.Errorf("dial tcp: %w", store.ErrUnavailable)
}

func TestStoreOutageIsRetryableNotNotFound(t *testing.T) {
	st := outageStore{Store: store.NewMemory()}
	rec := &notify.Recorder{}
	router := newRouter(st, arena.NewService(st, rec, false), channels.NewService(st, rec))

	w := postAction(t, router, map[string]any{
		"action": "move", "playerId": "alice",
		"move": map[string]string{"from": "e2", "to": "e4"},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("move during outage: status %d, want 500 (body %s)", w.Code, w.Body)
	}
	if got := decodeBody(t, w)["error"]; got != "store_unavailable" {
		t.Fatalf("move during outage: error %v, want store_unavailable", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/game/status?sessionId=s1", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	if w2.Code != http.StatusInternalServerError {
		t.Fatalf("status during outage: status %d, want 500 (body %s)", w2.Code, w2.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, req)
	if w3.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz during outage: status %d, want 503", w3.Code)
	}
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}
