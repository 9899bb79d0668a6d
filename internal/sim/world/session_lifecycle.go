package world

import (
	"golang.org/x/time/rate"

	"haven.world/internal/protocol"
)

func (w *World) handleJoin(req JoinRequest) {
	if req.PlayerID == "" || req.Out == nil {
		respondJoin(req, JoinResponse{})
		return
	}
	log := w.log.WithField("player_id", req.PlayerID).WithField("session_id", req.SessionID)

	superseded := false
	if old := w.clients[req.PlayerID]; old != nil {
		delete(w.clients, req.PlayerID)
		if old.Kick != nil {
			old.Kick()
		}
		superseded = true
		log.WithField("old_session_id", old.SessionID).Info("session superseded")
	}

	rec := w.ledger.GetOrCreate(req.PlayerID)
	others := w.currentPlayers(req.PlayerID)

	w.clients[req.PlayerID] = &clientState{
		SessionID: req.SessionID,
		Out:       req.Out,
		Kick:      req.Kick,
		chat:      rate.NewLimiter(w.cfg.ChatRate, w.cfg.ChatBurst),
	}

	w.sendTo(req.PlayerID, protocol.CurrentPlayersMsg{Type: protocol.TypeCurrentPlayers, Players: others})
	w.sendTo(req.PlayerID, protocol.PlayerSyncMsg{Type: protocol.TypePlayerSync, Payload: rec})
	if !superseded {
		w.broadcast(protocol.PlayerJoinedMsg{Type: protocol.TypePlayerJoined, ID: rec.ID, X: rec.X, Y: rec.Y}, req.PlayerID)
	}
	log.WithField("clients", len(w.clients)).Info("player joined")
	respondJoin(req, JoinResponse{Accepted: true})
}

func respondJoin(req JoinRequest, resp JoinResponse) {
	if req.Resp == nil {
		return
	}
	select {
	case req.Resp <- resp:
	default:
	}
}

// handleLeave ignores leaves from sessions that were already replaced or dropped.
func (w *World) handleLeave(req LeaveRequest) {
	c := w.clients[req.PlayerID]
	if c == nil || c.SessionID != req.SessionID {
		w.log.WithField("player_id", req.PlayerID).WithField("session_id", req.SessionID).Debug("stale leave ignored")
		return
	}
	delete(w.clients, req.PlayerID)
	w.broadcast(protocol.PlayerLeftMsg{Type: protocol.TypePlayerLeft, ID: req.PlayerID}, "")
	w.log.WithField("player_id", req.PlayerID).WithField("clients", len(w.clients)).Info("player left")
}

func (w *World) currentPlayers(exclude string) []protocol.PlayerPos {
	out := make([]protocol.PlayerPos, 0, len(w.clients))
	for _, id := range w.clientIDs() {
		if id == exclude {
			continue
		}
		rec, ok := w.ledger.Get(id)
		if !ok {
			continue
		}
		out = append(out, protocol.PlayerPos{ID: id, X: rec.X, Y: rec.Y})
	}
	return out
}
