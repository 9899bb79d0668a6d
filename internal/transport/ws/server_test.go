package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/world"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/store"
)

func startServer(t *testing.T) string {
	t.Helper()
	entities := []model.Entity{
		{ID: "tree_6_5", Asset: model.AssetTree, Role: model.RoleObstacle, X: 6, Y: 5},
	}
	st, err := store.Open(store.Config{Size: 100}, nil, func() []model.Entity { return entities }, nil)
	require.NoError(t, err)
	led, err := ledger.Open(ledger.Config{SpawnX: 5, SpawnY: 5}, nil, nil)
	require.NoError(t, err)
	w := world.New(world.WorldConfig{}, st, led, catalogs.Default(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	srv := NewServer(w, Config{}, nil)
	mux := http.NewServeMux()
	mux.Handle("GET /ws/{client_id}", srv.Handler())
	hs := httptest.NewServer(mux)

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
		hs.Close()
	})
	return "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, base, id string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/"+id, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestServer_ConnectSendsPlayersThenSync(t *testing.T) {
	base := startServer(t)
	conn := dial(t, base, "alice")

	require.Equal(t, "CURRENT_PLAYERS", readType(t, conn)["type"])
	sync := readType(t, conn)
	require.Equal(t, "PLAYER_SYNC", sync["type"])
	require.Equal(t, "alice", sync["payload"].(map[string]any)["id"])
}

func TestServer_MalformedMessagesAreIgnored(t *testing.T) {
	base := startServer(t)
	conn := dial(t, base, "alice")
	readType(t, conn)
	readType(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"NOPE"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"REQUEST_WORLD_STATE","payload":{}}`)))

	m := readType(t, conn)
	require.Equal(t, "WORLD_STATE", m["type"])
	resources := m["payload"].(map[string]any)["resources"].([]any)
	require.Len(t, resources, 1)
}

func TestServer_DisconnectBroadcastsLeft(t *testing.T) {
	base := startServer(t)
	alice := dial(t, base, "alice")
	readType(t, alice)
	readType(t, alice)

	bob := dial(t, base, "bob")
	readType(t, bob)
	readType(t, bob)
	require.Equal(t, "PLAYER_JOINED", readType(t, alice)["type"])

	require.NoError(t, bob.Close())
	m := readType(t, alice)
	require.Equal(t, "PLAYER_LEFT", m["type"])
	require.Equal(t, "bob", m["id"])
}

func TestServer_HarvestOverSocket(t *testing.T) {
	base := startServer(t)
	conn := dial(t, base, "alice")
	readType(t, conn)
	readType(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "ACTION_HARVEST",
		"payload": map[string]any{"resource_id": "tree_6_5", "tool": "tool_axe"},
	}))
	require.Equal(t, "HARVEST_SUCCESS", readType(t, conn)["type"])
	wallet := readType(t, conn)
	require.Equal(t, "WALLET_UPDATE", wallet["type"])
	require.Equal(t, float64(1), wallet["payload"].(map[string]any)["wood"])
	require.Equal(t, "RESOURCE_REMOVED", readType(t, conn)["type"])
}

type gatedHub struct {
	join  chan world.JoinRequest
	leave chan world.LeaveRequest
	inbox chan world.ActionEnvelope
}

func (h *gatedHub) Join() chan<- world.JoinRequest      { return h.join }
func (h *gatedHub) Leave() chan<- world.LeaveRequest    { return h.leave }
func (h *gatedHub) Inbox() chan<- world.ActionEnvelope { return h.inbox }

func TestServer_WaitsForJoinBeforeReading(t *testing.T) {
	hub := &gatedHub{
		join:  make(chan world.JoinRequest, 1),
		leave: make(chan world.LeaveRequest, 1),
		inbox: make(chan world.ActionEnvelope, 1),
	}
	srv := NewServer(hub, Config{}, nil)
	mux := http.NewServeMux()
	mux.Handle("GET /ws/{client_id}", srv.Handler())
	hs := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		hs.Close()
	})

	conn := dial(t, "ws"+strings.TrimPrefix(hs.URL, "http"), "alice")
	var req world.JoinRequest
	select {
	case req = <-hub.join:
	case <-time.After(2 * time.Second):
		t.Fatalf("no join")
	}
	require.NotNil(t, req.Resp)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"REQUEST_WORLD_STATE","payload":{}}`)))
	select {
	case <-hub.inbox:
		t.Fatalf("action forwarded before the join was acknowledged")
	case <-time.After(100 * time.Millisecond):
	}

	req.Resp <- world.JoinResponse{Accepted: true}
	select {
	case env := <-hub.inbox:
		require.Equal(t, req.SessionID, env.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatalf("action not forwarded after join")
	}

	require.NoError(t, conn.Close())
	select {
	case lv := <-hub.leave:
		require.Equal(t, req.SessionID, lv.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatalf("no leave")
	}
}
