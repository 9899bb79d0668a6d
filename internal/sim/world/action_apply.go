package world

import (
	"haven.world/internal/protocol"
	"haven.world/internal/sim/world/actions"
)

const (
	auditHarvest = "HARVEST"
	auditBuild   = "BUILD"
	auditCraft   = "CRAFT"
	auditPlace   = "PLACE"
)

func (w *World) handleAction(env ActionEnvelope) {
	c := w.clients[env.PlayerID]
	if c == nil || c.SessionID != env.SessionID {
		w.log.WithField("player_id", env.PlayerID).WithField("session_id", env.SessionID).Debug("action from detached session ignored")
		return
	}
	w.counters.actions++

	switch m := env.Msg.(type) {
	case protocol.PlayerMove:
		w.applyMove(env.PlayerID, m)
	case protocol.Harvest:
		w.applyHarvest(env.PlayerID, m)
	case protocol.Build:
		w.applyBuild(env.PlayerID, m)
	case protocol.Craft:
		w.applyCraft(env.PlayerID, m)
	case protocol.Place:
		w.applyPlace(env.PlayerID, m)
	case protocol.RequestWorldState:
		w.sendWorldState(env.PlayerID)
	case protocol.Chat:
		w.applyChat(env.PlayerID, c, m)
	default:
		w.log.WithField("player_id", env.PlayerID).Debugf("unhandled message %T", env.Msg)
	}
}

// Movement is not validated; harvest reads whatever position was last reported.
func (w *World) applyMove(playerID string, m protocol.PlayerMove) {
	if err := w.ledger.SetPosition(playerID, m.X, m.Y); err != nil {
		w.log.WithError(err).WithField("player_id", playerID).Error("set position")
		return
	}
	w.broadcast(protocol.PlayerMovedMsg{Type: protocol.TypePlayerMoved, ID: playerID, X: m.X, Y: m.Y}, playerID)
}

func (w *World) applyHarvest(playerID string, m protocol.Harvest) {
	res, err := w.proc.Harvest(playerID, m.ResourceID, m.Tool)
	if w.reportFailure(playerID, auditHarvest, res, err) {
		return
	}
	w.sendTo(playerID, protocol.HarvestSuccessMsg{Type: protocol.TypeHarvestSuccess, X: res.Target.X, Y: res.Target.Y, Loot: res.Loot})
	w.sendTo(playerID, protocol.WalletUpdateMsg{Type: protocol.TypeWalletUpdate, Payload: res.Player.Wallet})
	if res.Removed != nil {
		w.broadcast(protocol.ResourceRemovedMsg{
			Type:    protocol.TypeResourceRemoved,
			ID:      res.Removed.ID,
			X:       res.Removed.X,
			Y:       res.Removed.Y,
			Version: res.Version,
		}, "")
	}
	w.audit(playerID, auditHarvest, res.Target.ID, res.Target.X, res.Target.Y, res.Version, map[string]any{
		"loot":      res.Loot,
		"tool":      m.Tool,
		"renewable": res.Removed == nil,
	})
}

func (w *World) applyBuild(playerID string, m protocol.Build) {
	res, err := w.proc.Build(playerID, m.X, m.Y, m.ItemID)
	if w.reportFailure(playerID, auditBuild, res, err) {
		return
	}
	w.sendTo(playerID, protocol.WalletUpdateMsg{Type: protocol.TypeWalletUpdate, Payload: res.Player.Wallet})
	w.broadcast(protocol.ResourcePlacedMsg{Type: protocol.TypeResourcePlaced, Resource: *res.Placed, Version: res.Version}, "")
	w.audit(playerID, auditBuild, res.Placed.ID, m.X, m.Y, res.Version, map[string]any{"recipe": m.ItemID})
}

func (w *World) applyCraft(playerID string, m protocol.Craft) {
	res, err := w.proc.Craft(playerID, m.RecipeID)
	if w.reportFailure(playerID, auditCraft, res, err) {
		return
	}
	w.sendTo(playerID, protocol.WalletUpdateMsg{Type: protocol.TypeWalletUpdate, Payload: res.Player.Wallet})
	w.sendTo(playerID, protocol.CraftSuccessMsg{
		Type: protocol.TypeCraftSuccess,
		Payload: protocol.CraftSuccessPayload{
			RecipeID:  m.RecipeID,
			Item:      res.Item,
			Count:     res.Count,
			Wallet:    res.Player.Wallet,
			Inventory: res.Player.Inventory,
		},
	})
	w.audit(playerID, auditCraft, m.RecipeID, 0, 0, res.Version, map[string]any{"item": res.Item, "count": res.Count})
}

func (w *World) applyPlace(playerID string, m protocol.Place) {
	res, err := w.proc.Place(playerID, m.X, m.Y, m.ItemID)
	if w.reportFailure(playerID, auditPlace, res, err) {
		return
	}
	w.sendTo(playerID, protocol.PlaceSuccessMsg{
		Type: protocol.TypePlaceSuccess,
		Payload: protocol.PlaceSuccessPayload{
			Item:      res.Item,
			Resource:  *res.Placed,
			Inventory: res.Player.Inventory,
		},
	})
	w.broadcast(protocol.ResourcePlacedMsg{Type: protocol.TypeResourcePlaced, Resource: *res.Placed, Version: res.Version}, "")
	w.audit(playerID, auditPlace, res.Placed.ID, m.X, m.Y, res.Version, map[string]any{"item": m.ItemID})
}

func (w *World) sendWorldState(playerID string) {
	w.sendTo(playerID, protocol.WorldStateMsg{
		Type: protocol.TypeWorldState,
		Payload: protocol.WorldStatePayload{
			Resources: w.store.Snapshot(),
			Version:   w.store.Version(),
		},
	})
}

// reportFailure tells the acting player why an action did not happen. It returns
// false when there is nothing to report.
func (w *World) reportFailure(playerID, action string, res actions.Result, err error) bool {
	if err == nil {
		return false
	}
	log := w.log.WithField("player_id", playerID).WithField("action", action)
	if r, ok := protocol.AsRefusal(err); ok {
		w.counters.refusals++
		if res.Refunded && action == auditBuild {
			w.sendTo(playerID, protocol.WalletUpdateMsg{Type: protocol.TypeWalletUpdate, Payload: res.Player.Wallet})
		}
		w.sendError(playerID, r.Code, r.Message)
		log.WithField("code", r.Code).Debug(r.Message)
		return true
	}
	w.counters.failures++
	log.WithError(err).Error("action failed")
	w.sendError(playerID, protocol.ErrInternal, "internal error")
	return true
}
