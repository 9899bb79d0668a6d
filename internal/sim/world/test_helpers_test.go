package world

import (
	"encoding/json"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"haven.world/internal/protocol"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/store"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testClient struct {
	id      string
	session string
	out     chan []byte
	kicked  int
}

func newTestWorld(t *testing.T, clock *testClock, entities ...model.Entity) *World {
	t.Helper()
	st, err := store.Open(store.Config{Size: 100}, nil, func() []model.Entity { return entities }, nil)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	led, err := ledger.Open(ledger.Config{
		SpawnX:         5,
		SpawnY:         5,
		StartingWallet: map[model.Resource]int{model.ResourceWood: 0, model.ResourceStone: 0},
	}, nil, nil)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	cfg := WorldConfig{
		HarvestRadius: 3,
		ChatMaxRunes:  280,
		ChatRate:      rate.Limit(1),
		ChatBurst:     2,
	}
	if clock != nil {
		cfg.Now = clock.Now
	}
	return New(cfg, st, led, catalogs.Default(), nil)
}

func connect(t *testing.T, w *World, id string) *testClient {
	t.Helper()
	return connectWithQueue(t, w, id, id+"-s1", 64)
}

func connectWithQueue(t *testing.T, w *World, id, session string, queue int) *testClient {
	t.Helper()
	c := &testClient{id: id, session: session, out: make(chan []byte, queue)}
	w.handleJoin(JoinRequest{PlayerID: id, SessionID: session, Out: c.out, Kick: func() { c.kicked++ }})
	return c
}

func (c *testClient) act(w *World, msg protocol.Inbound) {
	w.handleAction(ActionEnvelope{PlayerID: c.id, SessionID: c.session, Msg: msg})
}

// drain returns every queued frame decoded to a generic map.
func (c *testClient) drain(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case b := <-c.out:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("bad frame %q: %v", b, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func msgTypes(msgs []map[string]any) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m["type"].(string))
	}
	return out
}
