package world

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"haven.world/internal/logging"
	"haven.world/internal/protocol"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/world/actions"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/terrain/store"
)

// JoinRequest attaches a connection to a player. SessionID tells connections of the
// same player apart; a newer session replaces an older one.
type JoinRequest struct {
	PlayerID  string
	SessionID string
	Out       chan []byte
	// Kick is called from the world goroutine when the world drops this session
	// (superseded or too slow). It must not block.
	Kick func()
	// Resp, when set, receives exactly one JoinResponse once the join has been
	// applied. It should be buffered.
	Resp chan JoinResponse
}

type JoinResponse struct {
	Accepted bool
}

type LeaveRequest struct {
	PlayerID  string
	SessionID string
}

type ActionEnvelope struct {
	PlayerID  string
	SessionID string
	Msg       protocol.Inbound
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// AuditEntry records one successful mutating action.
type AuditEntry struct {
	Seq     uint64         `json:"seq"`
	TimeMs  int64          `json:"time_ms"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // HARVEST, BUILD, CRAFT, PLACE
	Target  string         `json:"target,omitempty"`
	X       int            `json:"x"`
	Y       int            `json:"y"`
	Version uint64         `json:"version"`
	Details map[string]any `json:"details,omitempty"`
}

type clientState struct {
	SessionID string
	Out       chan []byte
	Kick      func()
	chat      *rate.Limiter
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	store  *store.Store
	ledger *ledger.Ledger
	proc   *actions.Processor

	clients map[string]*clientState

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan LeaveRequest
	stop  chan struct{}

	// Optional (may be nil). Implemented in internal/persistence/*.
	auditLogger AuditLogger
	auditSeq    uint64

	counters counters
	metrics  atomic.Value

	log logrus.FieldLogger
}

func New(cfg WorldConfig, st *store.Store, led *ledger.Ledger, cats *catalogs.Catalogs, log logrus.FieldLogger) *World {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logging.Discard()
	}
	w := &World{
		cfg:      cfg,
		catalogs: cats,
		store:    st,
		ledger:   led,
		proc: &actions.Processor{
			Store:    st,
			Ledger:   led,
			Catalogs: cats,
			Rules:    actions.Rules{HarvestRadius: cfg.HarvestRadius},
		},
		clients: map[string]*clientState{},
		inbox:   make(chan ActionEnvelope, cfg.InboxSize),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan LeaveRequest, 64),
		stop:    make(chan struct{}),
		log:     log.WithField("component", "world"),
	}
	w.publishMetrics()
	return w
}

func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- LeaveRequest   { return w.leave }
