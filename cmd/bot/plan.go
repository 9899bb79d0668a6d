package main

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"haven.world/internal/protocol"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/world/kernel/model"
)

// bot walks to the nearest harvestable entity and harvests it, then repeats.
type bot struct {
	id    string
	cats  *catalogs.Catalogs
	reach float64
	step  float64
	log   logrus.FieldLogger

	x, y      float64
	resources map[string]model.Entity
	target    string
	pending   bool
	harvested int
}

func newBot(id string, cats *catalogs.Catalogs, reach float64, log logrus.FieldLogger) *bot {
	return &bot{id: id, cats: cats, reach: reach, step: 1, log: log}
}

// handle folds one server frame into the bot's view and returns anything to send.
func (b *bot) handle(raw []byte) []protocol.Inbound {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return nil
	}
	switch base.Type {
	case protocol.TypePlayerSync:
		var m protocol.PlayerSyncMsg
		if json.Unmarshal(raw, &m) != nil {
			return nil
		}
		b.x, b.y = m.Payload.X, m.Payload.Y
		b.log.WithFields(logrus.Fields{"x": b.x, "y": b.y, "wallet": m.Payload.Wallet}).Info("synced")
		return []protocol.Inbound{protocol.RequestWorldState{}}

	case protocol.TypeWorldState:
		var m protocol.WorldStateMsg
		if json.Unmarshal(raw, &m) != nil {
			return nil
		}
		b.resources = make(map[string]model.Entity, len(m.Payload.Resources))
		for _, e := range m.Payload.Resources {
			b.resources[e.ID] = e
		}
		b.target = ""
		b.log.WithField("resources", len(b.resources)).Info("world state")

	case protocol.TypeResourceRemoved:
		var m protocol.ResourceRemovedMsg
		if json.Unmarshal(raw, &m) != nil {
			return nil
		}
		delete(b.resources, m.ID)
		if m.ID == b.target {
			b.target = ""
		}

	case protocol.TypeResourcePlaced:
		var m protocol.ResourcePlacedMsg
		if json.Unmarshal(raw, &m) != nil || b.resources == nil {
			return nil
		}
		b.resources[m.Resource.ID] = m.Resource

	case protocol.TypeHarvestSuccess:
		var m protocol.HarvestSuccessMsg
		if json.Unmarshal(raw, &m) != nil {
			return nil
		}
		b.harvested++
		b.pending = false
		b.target = ""
		b.log.WithFields(logrus.Fields{"x": m.X, "y": m.Y, "loot": m.Loot}).Info("harvested")

	case protocol.TypeError:
		var m protocol.ErrorMsg
		if json.Unmarshal(raw, &m) != nil {
			return nil
		}
		b.log.WithField("code", m.Code).Warn(m.Message)
		if b.pending {
			// Skip whatever we could not harvest.
			delete(b.resources, b.target)
			b.target = ""
			b.pending = false
		}
	}
	return nil
}

// tick advances one step toward the current target, or harvests it once in reach.
func (b *bot) tick() []protocol.Inbound {
	if b.resources == nil || b.pending {
		return nil
	}
	e, ok := b.resources[b.target]
	if !ok {
		e, ok = nearestHarvestable(b.resources, b.cats, b.x, b.y)
		if !ok {
			return nil
		}
		b.target = e.ID
	}
	if math.Hypot(b.x-float64(e.X), b.y-float64(e.Y)) <= b.reach {
		rule, _ := b.cats.HarvestRule(e.Asset)
		b.pending = true
		return []protocol.Inbound{protocol.Harvest{ResourceID: e.ID, Tool: toolFor(rule)}}
	}
	b.x, b.y = stepToward(b.x, b.y, float64(e.X), float64(e.Y), b.step)
	return []protocol.Inbound{protocol.PlayerMove{X: b.x, Y: b.y}}
}

func toolFor(rule catalogs.HarvestRule) string {
	if rule.Tool == "" {
		return ""
	}
	return "tool_" + rule.Tool
}

// nearestHarvestable picks the closest entity with a harvest rule; ties break by id.
func nearestHarvestable(resources map[string]model.Entity, cats *catalogs.Catalogs, x, y float64) (model.Entity, bool) {
	ids := make([]string, 0, len(resources))
	for id := range resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var best model.Entity
	bestDist := math.Inf(1)
	for _, id := range ids {
		e := resources[id]
		if _, ok := cats.HarvestRule(e.Asset); !ok {
			continue
		}
		if d := math.Hypot(x-float64(e.X), y-float64(e.Y)); d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// stepToward moves at most step units from (x,y) toward (tx,ty).
func stepToward(x, y, tx, ty, step float64) (float64, float64) {
	dx, dy := tx-x, ty-y
	d := math.Hypot(dx, dy)
	if d <= step {
		return tx, ty
	}
	return x + dx/d*step, y + dy/d*step
}
