package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

func dialLive(t *testing.T, ctx context.Context, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/live?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func waitForConns(t *testing.T, registry *Registry, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("registry has %d connections, want %d", registry.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLiveBroadcast(t *testing.T) {
	env := setupEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token1 := newAccount(t, env.store, "walker", cachequest.RoleParticipant)
	_, claimToken := newAccount(t, env.store, "maria", cachequest.RoleParticipant)
	spot := newSpot(t, env.store, "Old Harbour Bell", "BELL01")

	conn1 := dialLive(t, ctx, srv, token1)
	conn2 := dialLive(t, ctx, srv, claimToken)
	waitForConns(t, env.registry, 2)

	w := env.do(t, http.MethodPost, "/api/spots/claim", claimToken, ClaimRequest{Code: "BELL01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("claim failed: %d %s", w.Code, w.Body.String())
	}

	// Every connection open at publish time receives the event, the claimant's
	// own included.
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		var ev FoundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if ev.Type != "cache.found" {
			t.Errorf("got type %q, want cache.found", ev.Type)
		}
		if ev.SpotID != spot.ID || ev.SpotName != "Old Harbour Bell" {
			t.Errorf("unexpected event %+v", ev)
		}
		if ev.ParticipantDisplayName != "maria" {
			t.Errorf("got finder %q, want maria", ev.ParticipantDisplayName)
		}
	}

	// A connection opened after the claim gets no replay.
	late := dialLive(t, ctx, srv, token1)
	waitForConns(t, env.registry, 3)

	readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer readCancel()
	if _, _, err := late.Read(readCtx); err == nil {
		t.Error("late connection received a replayed event")
	}
}

func TestLiveRejectsBadCredentials(t *testing.T) {
	env := setupEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/live")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/live?token=bogus")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with bad token, got %d", resp.StatusCode)
	}

	p, token := newAccount(t, env.store, "walker", cachequest.RoleParticipant)
	inactive := false
	if _, err := env.store.UpdateParticipant(context.Background(), p.ID, ParticipantUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	resp, err = http.Get(srv.URL + "/api/live?token=" + token)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for deactivated account, got %d", resp.StatusCode)
	}
}

func TestLiveDisconnectUnregisters(t *testing.T) {
	env := setupEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token := newAccount(t, env.store, "walker", cachequest.RoleParticipant)
	conn := dialLive(t, ctx, srv, token)
	waitForConns(t, env.registry, 1)

	conn.Close(websocket.StatusNormalClosure, "done")
	waitForConns(t, env.registry, 0)
}
