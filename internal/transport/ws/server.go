package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"haven.world/internal/logging"
	"haven.world/internal/protocol"
	"haven.world/internal/sim/world"
)

// Hub is the part of the world actor a connection talks to.
type Hub interface {
	Join() chan<- world.JoinRequest
	Leave() chan<- world.LeaveRequest
	Inbox() chan<- world.ActionEnvelope
}

type Config struct {
	// OutboundQueue is the per-connection send buffer; a client that lets it fill
	// up is dropped by the world.
	OutboundQueue int
	ReadLimit     int64
	WriteTimeout  time.Duration
	PongWait      time.Duration
}

func (c Config) withDefaults() Config {
	if c.OutboundQueue <= 0 {
		c.OutboundQueue = 256
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 * 1024
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	return c
}

type Server struct {
	hub Hub
	cfg Config
	log logrus.FieldLogger

	upgrader websocket.Upgrader

	done     chan struct{}
	doneOnce sync.Once
}

func NewServer(hub Hub, cfg Config, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		hub: hub,
		cfg: cfg.withDefaults(),
		log: logger.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		done: make(chan struct{}),
	}
}

// Close stops handing new work to the world. Open connections finish on their own
// once the world kicks them during shutdown.
func (s *Server) Close() { s.doneOnce.Do(func() { close(s.done) }) }

// Handler serves /ws/{client_id}. The path segment is the stable player identity.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		playerID := strings.TrimSpace(r.PathValue("client_id"))
		if playerID == "" {
			http.Error(rw, "missing client id", http.StatusBadRequest)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.WithError(err).Debug("upgrade")
			return
		}
		s.serve(conn, playerID)
	}
}

func (s *Server) serve(conn *websocket.Conn, playerID string) {
	defer conn.Close()

	sessionID := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{"player": playerID, "session": sessionID})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var kickOnce sync.Once
	kick := func() {
		kickOnce.Do(func() {
			cancel()
			_ = conn.Close()
		})
	}

	out := make(chan []byte, s.cfg.OutboundQueue)
	resp := make(chan world.JoinResponse, 1)
	if !enqueue(ctx, s.done, s.hub.Join(), world.JoinRequest{PlayerID: playerID, SessionID: sessionID, Out: out, Kick: kick, Resp: resp}) {
		return
	}
	// Nothing is read from the socket until the world has attached the session, so
	// neither an action nor the leave can overtake the join.
	select {
	case r := <-resp:
		if !r.Accepted {
			log.Warn("join rejected")
			return
		}
	case <-ctx.Done():
		return
	case <-s.done:
		return
	}
	log.Info("player connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, conn, out, cancel)
	}()

	conn.SetReadLimit(s.cfg.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		in, err := protocol.Decode(msg)
		if err != nil {
			log.WithError(err).Debug("ignoring message")
			continue
		}
		if !enqueue(ctx, s.done, s.hub.Inbox(), world.ActionEnvelope{PlayerID: playerID, SessionID: sessionID, Msg: in}) {
			break
		}
	}

	kick()
	wg.Wait()
	// The world may already be gone during shutdown.
	select {
	case s.hub.Leave() <- world.LeaveRequest{PlayerID: playerID, SessionID: sessionID}:
	case <-s.done:
	}
	log.Info("player disconnected")
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan []byte, cancel context.CancelFunc) {
	ping := time.NewTicker(s.cfg.PongWait * 9 / 10)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		}
	}
}

// enqueue hands v to the world unless the connection or the server is done.
func enqueue[T any](ctx context.Context, done <-chan struct{}, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	case <-done:
		return false
	}
}
