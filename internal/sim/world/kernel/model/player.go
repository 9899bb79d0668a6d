package model

import "math"

// Resource is a fungible wallet entry.
type Resource string

const (
	ResourceWood   Resource = "wood"
	ResourceStone  Resource = "stone"
	ResourceCotton Resource = "cotton"
	ResourceClay   Resource = "clay"
	ResourceApple  Resource = "apple"
)

// Item is a discrete inventory entry (tools, craftables, placeables).
type Item string

const (
	ItemAxe         Item = "tool_axe"
	ItemPickaxe     Item = "tool_pickaxe"
	ItemShovel      Item = "tool_shovel"
	ItemKnife       Item = "tool_knife"
	ItemFurnace     Item = "furnace"
	ItemClayPot     Item = "clay_pot"
	ItemPathStone   Item = "path_stone"
	ItemCampfireKit Item = "campfire_kit"
)

// PlayerRecord is the durable per-player economy and position. ID is the stable
// client identity, not a connection id.
type PlayerRecord struct {
	ID        string           `json:"id"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Wallet    map[Resource]int `json:"wallet"`
	Inventory map[Item]int     `json:"inventory"`
}

// Clone returns a deep copy so callers never alias ledger state.
func (p PlayerRecord) Clone() PlayerRecord {
	out := p
	out.Wallet = make(map[Resource]int, len(p.Wallet))
	for k, v := range p.Wallet {
		out.Wallet[k] = v
	}
	out.Inventory = make(map[Item]int, len(p.Inventory))
	for k, v := range p.Inventory {
		out.Inventory[k] = v
	}
	return out
}

// DistanceTo is the Euclidean distance from the player's continuous position to the
// centre-less grid point of c.
func (p PlayerRecord) DistanceTo(c Cell) float64 {
	return math.Hypot(p.X-float64(c.X), p.Y-float64(c.Y))
}
