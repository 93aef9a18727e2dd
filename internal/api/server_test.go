package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textexpand/internal/engine"
	"textexpand/internal/input/inputtest"
	"textexpand/internal/protocol"
)

type fakeController struct {
	mu       sync.Mutex
	running  bool
	startErr error
	fire     func(engine.Fired)
}

func (f *fakeController) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeController) setStartErr(err error) {
	f.mu.Lock()
	f.startErr = err
	f.mu.Unlock()
}

func (f *fakeController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeController) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeController) Hotkeys() []engine.Info {
	return []engine.Info{{Trigger: "Ctrl+K", Description: "clear"}}
}

func (f *fakeController) Hotstrings() []engine.Info {
	return []engine.Info{{Trigger: "btw", Description: "by the way"}, {Trigger: "eml", Description: "mail"}}
}

func (f *fakeController) OnFire(fn func(engine.Fired)) { f.fire = fn }

func newTestServer(t *testing.T, token string) (*fakeController, *Server, *httptest.Server) {
	t.Helper()
	ctrl := &fakeController{running: true}
	s := NewServer(ctrl, token, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.hub.run(ctx)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return ctrl, s, ts
}

func do(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndTriggers(t *testing.T) {
	_, _, ts := newTestServer(t, "")

	resp := do(t, http.MethodGet, ts.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/api/triggers", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got protocol.TriggersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []protocol.TriggerInfo{{Trigger: "Ctrl+K", Description: "clear"}}, got.Hotkeys)
	assert.Len(t, got.Hotstrings, 2)

	resp = do(t, http.MethodPost, ts.URL+"/api/triggers", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPauseResume(t *testing.T) {
	ctrl, _, ts := newTestServer(t, "")

	resp := do(t, http.MethodPost, ts.URL+"/api/pause", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, ctrl.Running())

	resp = do(t, http.MethodGet, ts.URL+"/api/status", "")
	var state protocol.StatePayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, protocol.StatePayload{Running: false, Hotkeys: 1, Hotstrings: 2}, state)

	ctrl.setStartErr(errors.New("another engine is active"))
	resp = do(t, http.MethodPost, ts.URL+"/api/resume", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	ctrl.setStartErr(nil)
	resp = do(t, http.MethodPost, ts.URL+"/api/resume", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, ctrl.Running())

	resp = do(t, http.MethodGet, ts.URL+"/api/pause", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTokenRequired(t *testing.T) {
	_, _, ts := newTestServer(t, "s3cret")

	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/health", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, ts.URL+"/api/status", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, ts.URL+"/api/status", "wrong").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/status", "s3cret").StatusCode)
}

func readMessage(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestEventStream(t *testing.T) {
	ctrl, s, ts := newTestServer(t, "s3cret")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=s3cret", nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, protocol.TypeState, msg.Type)

	// Registration happens after the greeting; wait for it before firing.
	require.Eventually(t, func() bool {
		s.hub.clientsMu.Lock()
		defer s.hub.clientsMu.Unlock()
		return len(s.hub.clients) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NotNil(t, ctrl.fire)
	ctrl.fire(engine.Fired{Kind: engine.KindHotstring, Trigger: "btw", Description: "by the way", Time: time.Now()})

	msg = readMessage(t, conn)
	assert.Equal(t, protocol.TypeFired, msg.Type)
	payload, ok := msg.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hotstring", payload["kind"])
	assert.Equal(t, "btw", payload["trigger"])
	assert.NotEmpty(t, payload["id"])

	s.BroadcastState()
	msg = readMessage(t, conn)
	assert.Equal(t, protocol.TypeState, msg.Type)
}

func TestServeStopsOnCancel(t *testing.T) {
	s := NewServer(&fakeController{}, "", nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestPauseResumeWhileEngineRuns(t *testing.T) {
	eng := engine.New(inputtest.NewSource(), &inputtest.Recorder{}, engine.Options{Sleep: func(time.Duration) {}})
	s := NewServer(eng, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.hub.run(ctx)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	require.Eventually(t, eng.Running, time.Second, time.Millisecond)

	resp := do(t, http.MethodPost, ts.URL+"/api/pause", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, eng.Running())
	select {
	case err := <-done:
		t.Fatalf("Run returned after pause: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	resp = do(t, http.MethodPost, ts.URL+"/api/resume", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, eng.Running())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
