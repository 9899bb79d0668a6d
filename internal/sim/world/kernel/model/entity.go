package model

import "fmt"

// Asset is the visual/material category of a world entity.
type Asset string

const (
	AssetTree       Asset = "tree"
	AssetRock       Asset = "rock"
	AssetCottonBush Asset = "cotton_bush"
	AssetClayNode   Asset = "clay_node"
	AssetAppleTree  Asset = "apple_tree"
	AssetPathStone  Asset = "path_stone"
	AssetFurnace    Asset = "furnace"
	AssetClayPot    Asset = "clay_pot"
)

// Role says whether an entity blocks movement.
type Role string

const (
	RoleObstacle Role = "obstacle"
	RoleFloor    Role = "floor"
)

func (r Role) Valid() bool { return r == RoleObstacle || r == RoleFloor }

// Cell is an integer grid coordinate.
type Cell struct {
	X int
	Y int
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Entity occupies exactly one cell. The role is serialised as "type" to stay
// compatible with existing clients.
type Entity struct {
	ID    string `json:"id"`
	Asset Asset  `json:"asset"`
	Role  Role   `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

func (e Entity) Cell() Cell { return Cell{X: e.X, Y: e.Y} }

// GeneratedID is the id of an entity placed by world generation. It depends only on
// asset and coordinates so regenerating with the same seed yields identical ids.
func GeneratedID(asset Asset, x, y int) string {
	return fmt.Sprintf("%s_%d_%d", asset, x, y)
}

// PlacedID is the id of an entity created after boot.
func PlacedID(asset Asset, x, y int, unixMilli int64) string {
	return fmt.Sprintf("%s_%d_%d_%d", asset, x, y, unixMilli)
}
