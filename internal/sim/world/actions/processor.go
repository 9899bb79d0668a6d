// Package actions validates and applies the four mutating player actions against the
// world store and the economy ledger.
//
// Every method returns (Result, error). A *protocol.Refusal error is a rule-level
// rejection to report to the player; any other error is an internal failure. When a
// step fails after an earlier step already mutated state, the earlier step is undone
// before returning.
package actions

import (
	"errors"
	"fmt"

	"haven.world/internal/protocol"
	"haven.world/internal/sim/catalogs"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/feature/work"
	"haven.world/internal/sim/world/kernel/model"
)

// World is the subset of the entity store the processor needs.
type World interface {
	ByID(id string) (model.Entity, bool)
	InBounds(x, y int) bool
	Add(asset model.Asset, role model.Role, x, y int) (model.Entity, bool)
	Remove(x, y int) (model.Entity, bool)
	Restore(e model.Entity) bool
	Version() uint64
}

// Economy is the subset of the ledger the processor needs.
type Economy interface {
	Get(id string) (model.PlayerRecord, bool)
	Credit(id string, res model.Resource, delta int) error
	ConsumeMany(id string, costs map[model.Resource]int) error
	CreditMany(id string, amounts map[model.Resource]int) error
	AddItem(id string, item model.Item, n int) error
	ConsumeItem(id string, item model.Item, n int) error
}

type Rules struct {
	// HarvestRadius is inclusive.
	HarvestRadius float64
}

type Processor struct {
	Store    World
	Ledger   Economy
	Catalogs *catalogs.Catalogs
	Rules    Rules
}

type Result struct {
	// Player is the acting player's record after the action, including after a refund.
	Player model.PlayerRecord

	// Target is the harvested entity as it was before the action.
	Target  model.Entity
	Removed *model.Entity
	Placed  *model.Entity
	Loot    map[model.Resource]int

	Item  model.Item
	Count int

	// Refunded is set on refusals that returned a debit, so the caller can resend
	// the balance.
	Refunded bool

	Version uint64
}

func refuse(code, msg string) error { return protocol.Refuse(code, msg) }

func (p *Processor) player(id string) (model.PlayerRecord, error) {
	rec, ok := p.Ledger.Get(id)
	if !ok {
		return model.PlayerRecord{}, fmt.Errorf("player %q: %w", id, ledger.ErrUnknownPlayer)
	}
	return rec, nil
}

func (p *Processor) done(playerID string, res Result) (Result, error) {
	rec, err := p.player(playerID)
	if err != nil {
		return res, err
	}
	res.Player = rec
	res.Version = p.Store.Version()
	return res, nil
}

// Harvest collects the entity with resourceID using tool.
func (p *Processor) Harvest(playerID, resourceID, tool string) (Result, error) {
	e, ok := p.Store.ByID(resourceID)
	if !ok {
		return Result{}, refuse(protocol.ErrInvalidTarget, "resource not found")
	}
	rec, err := p.player(playerID)
	if err != nil {
		return Result{}, err
	}
	if rec.DistanceTo(e.Cell()) > p.Rules.HarvestRadius {
		return Result{}, refuse(protocol.ErrBlocked, "target too far")
	}
	rule, ok := p.Catalogs.HarvestRule(e.Asset)
	if !ok {
		return Result{}, refuse(protocol.ErrInvalidTarget, "resource not harvestable")
	}
	if !work.ToolSatisfies(rule.ToolFamily(), tool) {
		return Result{}, refuse(protocol.ErrWrongTool, rule.WrongToolText)
	}

	loot := map[model.Resource]int{rule.Loot: rule.Amount}
	if rule.Renewable {
		if err := p.Ledger.Credit(playerID, rule.Loot, rule.Amount); err != nil {
			return Result{}, fmt.Errorf("harvest %s: credit: %w", e.ID, err)
		}
		return p.done(playerID, Result{Target: e, Loot: loot})
	}

	removed, ok := p.Store.Remove(e.X, e.Y)
	if !ok {
		return Result{}, refuse(protocol.ErrInvalidTarget, "resource not found")
	}
	if err := p.Ledger.Credit(playerID, rule.Loot, rule.Amount); err != nil {
		if !p.Store.Restore(removed) {
			return Result{}, fmt.Errorf("harvest %s: credit: %w (entity could not be restored)", e.ID, err)
		}
		return Result{}, fmt.Errorf("harvest %s: credit: %w", e.ID, err)
	}
	return p.done(playerID, Result{Target: e, Removed: &removed, Loot: loot})
}

// Build spends wallet resources on a recipe and places its entity at (x, y).
func (p *Processor) Build(playerID string, x, y int, recipeID string) (Result, error) {
	recipe, ok := p.Catalogs.Build(recipeID)
	if !ok {
		return Result{}, refuse(protocol.ErrUnknownRecipe, "unknown recipe")
	}
	if !p.Store.InBounds(x, y) {
		return Result{}, refuse(protocol.ErrInvalidTarget, "out of bounds")
	}
	if err := p.consume(playerID, recipe.Cost); err != nil {
		return Result{}, err
	}

	placed, ok := p.Store.Add(recipe.Asset, recipe.Role, x, y)
	if !ok {
		if err := p.Ledger.CreditMany(playerID, recipe.Cost); err != nil {
			return Result{}, fmt.Errorf("build %s: refund: %w", recipeID, err)
		}
		res, err := p.done(playerID, Result{Refunded: true})
		if err != nil {
			return res, err
		}
		return res, refuse(protocol.ErrConflict, "cell occupied")
	}
	return p.done(playerID, Result{Placed: &placed})
}

// Craft turns wallet resources into inventory items.
func (p *Processor) Craft(playerID, recipeID string) (Result, error) {
	recipe, ok := p.Catalogs.Craft(recipeID)
	if !ok {
		return Result{}, refuse(protocol.ErrUnknownRecipe, "unknown recipe")
	}
	if err := p.consume(playerID, recipe.Cost); err != nil {
		return Result{}, err
	}
	if err := p.Ledger.AddItem(playerID, recipe.Output, recipe.Yield); err != nil {
		if rerr := p.Ledger.CreditMany(playerID, recipe.Cost); rerr != nil {
			return Result{}, fmt.Errorf("craft %s: add item: %w (refund failed: %v)", recipeID, err, rerr)
		}
		return Result{}, fmt.Errorf("craft %s: add item: %w", recipeID, err)
	}
	return p.done(playerID, Result{Item: recipe.Output, Count: recipe.Yield})
}

// Place puts one inventory item into the world at (x, y).
func (p *Processor) Place(playerID string, x, y int, itemID string) (Result, error) {
	item := model.Item(itemID)
	if !p.Store.InBounds(x, y) {
		return Result{}, refuse(protocol.ErrInvalidTarget, "out of bounds")
	}
	if err := p.Ledger.ConsumeItem(playerID, item, 1); err != nil {
		if errors.Is(err, ledger.ErrInsufficient) || errors.Is(err, ledger.ErrInvalidAmount) {
			return Result{}, refuse(protocol.ErrNoResource, "item not in inventory")
		}
		return Result{}, fmt.Errorf("place %s: %w", itemID, err)
	}

	placement, ok := p.Catalogs.Placement(item)
	if !ok {
		return p.returnItem(playerID, item, refuse(protocol.ErrInvalidTarget, "item not placeable"))
	}
	placed, ok := p.Store.Add(placement.Asset, placement.Role, x, y)
	if !ok {
		return p.returnItem(playerID, item, refuse(protocol.ErrConflict, "cell occupied"))
	}
	return p.done(playerID, Result{Placed: &placed, Item: item, Count: 1})
}

func (p *Processor) returnItem(playerID string, item model.Item, refusal error) (Result, error) {
	if err := p.Ledger.AddItem(playerID, item, 1); err != nil {
		return Result{}, fmt.Errorf("place %s: return item: %w", item, err)
	}
	res, err := p.done(playerID, Result{Refunded: true})
	if err != nil {
		return res, err
	}
	return res, refusal
}

func (p *Processor) consume(playerID string, cost map[model.Resource]int) error {
	err := p.Ledger.ConsumeMany(playerID, cost)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficient):
		return refuse(protocol.ErrNoResource, "insufficient resources")
	default:
		return err
	}
}
