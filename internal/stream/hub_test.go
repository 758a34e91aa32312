package stream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VoidMesh/lethal-empire/internal/chunk"
	"github.com/VoidMesh/lethal-empire/internal/game"
	"github.com/VoidMesh/lethal-empire/internal/geometry"
	"github.com/VoidMesh/lethal-empire/internal/stream"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type focusFunc func(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error)

func (f focusFunc) Focus(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error) {
	return f(ctx, pos)
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startHub(t *testing.T, focus stream.FocusHandler) (*stream.Hub, *httptest.Server) {
	t.Helper()
	hub := stream.NewHub(focus)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, hub *stream.Hub, srv *httptest.Server, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Clients() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, srv := startHub(t, nil)
	a := dial(t, hub, srv, 1)
	b := dial(t, hub, srv, 2)

	require.NoError(t, hub.Broadcast("tick", map[string]int{"tick": 7}))

	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		assert.Equal(t, "tick", f.Event)
		assert.JSONEq(t, `{"tick":7}`, string(f.Data))
	}
}

func TestHub_ForwardSnapshots(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, hub, srv, 1)

	snapshots := make(chan game.Snapshot, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Forward(ctx, snapshots)

	snapshots <- game.Snapshot{Tick: 42, State: game.Playing}

	f := readFrame(t, conn)
	assert.Equal(t, "tick", f.Event)
	var s struct {
		Tick  uint64 `json:"tick"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &s))
	assert.Equal(t, uint64(42), s.Tick)
	assert.Equal(t, "playing", s.State)
}

func TestHub_ClientRequests(t *testing.T) {
	tests := []struct {
		name         string
		focus        stream.FocusHandler
		request      string
		expectFields func(t *testing.T, f frame)
	}{
		{
			name: "focus is forwarded",
			focus: focusFunc(func(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error) {
				assert.Equal(t, geometry.Vec2{X: 300, Z: -20}, pos)
				return chunk.FocusResult{Center: geometry.ChunkCoord{X: 1, Z: -1}}, nil
			}),
			request: `{"type":"focus","x":300,"z":-20}`,
			expectFields: func(t *testing.T, f frame) {
				assert.Equal(t, "focus", f.Event)
				var res chunk.FocusResult
				require.NoError(t, json.Unmarshal(f.Data, &res))
				assert.Equal(t, geometry.ChunkCoord{X: 1, Z: -1}, res.Center)
			},
		},
		{
			name: "focus failure",
			focus: focusFunc(func(ctx context.Context, pos geometry.Vec2) (chunk.FocusResult, error) {
				return chunk.FocusResult{}, errors.New("boom")
			}),
			request: `{"type":"focus","x":0,"z":0}`,
			expectFields: func(t *testing.T, f frame) {
				assert.Equal(t, "error", f.Event)
				assert.Contains(t, string(f.Data), "focus failed")
			},
		},
		{
			name:    "focus without handler",
			request: `{"type":"focus","x":0,"z":0}`,
			expectFields: func(t *testing.T, f frame) {
				assert.Equal(t, "error", f.Event)
			},
		},
		{
			name:    "unknown type",
			request: `{"type":"dance"}`,
			expectFields: func(t *testing.T, f frame) {
				assert.Equal(t, "error", f.Event)
				assert.Contains(t, string(f.Data), "dance")
			},
		},
		{
			name:    "malformed json",
			request: `{`,
			expectFields: func(t *testing.T, f frame) {
				assert.Equal(t, "error", f.Event)
				assert.Contains(t, string(f.Data), "invalid message")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, srv := startHub(t, tt.focus)
			conn := dial(t, hub, srv, 1)

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.request)))
			tt.expectFields(t, readFrame(t, conn))
		})
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, hub, srv, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
