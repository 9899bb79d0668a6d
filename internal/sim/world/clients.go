package world

import (
	"encoding/json"
	"sort"

	"haven.world/internal/protocol"
)

func (w *World) encode(msg any) []byte {
	b, err := json.Marshal(msg)
	if err != nil {
		w.log.WithError(err).Error("encode outbound message")
		return nil
	}
	return b
}

// deliver never blocks the world loop: a client whose queue is full is reported back
// so the caller can drop it.
func deliver(c *clientState, b []byte) bool {
	select {
	case c.Out <- b:
		return true
	default:
		return false
	}
}

func (w *World) clientIDs() []string {
	ids := make([]string, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sendTo(playerID string, msg any) {
	c := w.clients[playerID]
	if c == nil {
		return
	}
	b := w.encode(msg)
	if b == nil {
		return
	}
	if !deliver(c, b) {
		w.dropClient(playerID, "outbound queue full")
	}
}

// broadcast sends msg to every connected client except exclude ("" for none).
func (w *World) broadcast(msg any, exclude string) {
	b := w.encode(msg)
	if b == nil {
		return
	}
	var slow []string
	for _, id := range w.clientIDs() {
		if id == exclude {
			continue
		}
		if !deliver(w.clients[id], b) {
			slow = append(slow, id)
		}
	}
	for _, id := range slow {
		w.dropClient(id, "outbound queue full")
	}
}

// dropClient disconnects a session the world can no longer serve and tells everyone
// else the player left.
func (w *World) dropClient(playerID, reason string) {
	c := w.clients[playerID]
	if c == nil {
		return
	}
	delete(w.clients, playerID)
	if c.Kick != nil {
		c.Kick()
	}
	w.log.WithField("player_id", playerID).WithField("session_id", c.SessionID).WithField("reason", reason).Warn("dropping client")
	w.broadcast(protocol.PlayerLeftMsg{Type: protocol.TypePlayerLeft, ID: playerID}, "")
}

func (w *World) sendError(playerID, code, message string) {
	w.sendTo(playerID, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: message})
}
