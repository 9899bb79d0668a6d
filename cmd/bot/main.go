package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"haven.world/internal/logging"
	"haven.world/internal/protocol"
	"haven.world/internal/sim/catalogs"
)

func main() {
	var (
		url       = flag.String("url", "ws://localhost:8000/ws", "server ws base url")
		id        = flag.String("id", "", "player id (default: bot-<random>)")
		configDir = flag.String("configs", "./configs", "config directory (recipes.json)")
		interval  = flag.Duration("interval", 250*time.Millisecond, "delay between moves")
		reach     = flag.Float64("reach", 2.5, "distance at which the bot harvests")
	)
	flag.Parse()

	logger := logging.New("", "", os.Stdout)
	if *id == "" {
		*id = "bot-" + uuid.NewString()[:8]
	}
	log := logger.WithField("player", *id)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		log.WithError(err).Fatal("load catalogs")
	}

	target := strings.TrimSuffix(*url, "/") + "/" + *id
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer conn.Close()
	log.WithField("url", target).Info("connected")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	frames := make(chan []byte, 64)
	go func() {
		defer close(frames)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.WithError(err).Info("connection closed")
				return
			}
			frames <- msg
		}
	}()

	b := newBot(*id, cats, *reach, log)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		var out []protocol.Inbound
		select {
		case <-stop:
			log.WithField("harvested", b.harvested).Info("stopping")
			return
		case msg, ok := <-frames:
			if !ok {
				return
			}
			out = b.handle(msg)
		case <-ticker.C:
			out = b.tick()
		}
		if err := send(conn, out); err != nil {
			log.WithError(err).Error("send")
			return
		}
	}
}

func send(conn *websocket.Conn, msgs []protocol.Inbound) error {
	for _, m := range msgs {
		b, err := protocol.Encode(m)
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.MessageType(), err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return err
		}
	}
	return nil
}
