package catalogs

import "haven.world/internal/sim/world/kernel/model"

func defaultFile() fileFormat {
	return fileFormat{
		Build: []BuildRecipe{
			{ID: "tree", Cost: map[model.Resource]int{model.ResourceWood: 5}, Asset: model.AssetTree, Role: model.RoleObstacle},
			{ID: "rock", Cost: map[model.Resource]int{model.ResourceStone: 2}, Asset: model.AssetRock, Role: model.RoleObstacle},
			{ID: "path_stone", Cost: map[model.Resource]int{model.ResourceStone: 1}, Asset: model.AssetPathStone, Role: model.RoleFloor},
		},
		Craft: []CraftRecipe{
			{ID: "tool_axe", Cost: map[model.Resource]int{model.ResourceWood: 2, model.ResourceStone: 2}, Output: model.ItemAxe, Yield: 1},
			{ID: "tool_pickaxe", Cost: map[model.Resource]int{model.ResourceWood: 2, model.ResourceStone: 3}, Output: model.ItemPickaxe, Yield: 1},
			{ID: "tool_shovel", Cost: map[model.Resource]int{model.ResourceWood: 2, model.ResourceStone: 1}, Output: model.ItemShovel, Yield: 1},
			{ID: "tool_knife", Cost: map[model.Resource]int{model.ResourceStone: 1}, Output: model.ItemKnife, Yield: 1},
			{ID: "furnace", Cost: map[model.Resource]int{model.ResourceStone: 8}, Output: model.ItemFurnace, Yield: 1},
			{ID: "clay_pot", Cost: map[model.Resource]int{model.ResourceClay: 3}, Output: model.ItemClayPot, Yield: 1},
			{ID: "path_stone", Cost: map[model.Resource]int{model.ResourceStone: 1}, Output: model.ItemPathStone, Yield: 2},
			{ID: "campfire_kit", Cost: map[model.Resource]int{model.ResourceWood: 4, model.ResourceStone: 2}, Output: model.ItemCampfireKit, Yield: 1},
		},
		Placements: []Placement{
			{Item: model.ItemFurnace, Asset: model.AssetFurnace, Role: model.RoleObstacle},
			{Item: model.ItemClayPot, Asset: model.AssetClayPot, Role: model.RoleObstacle},
			{Item: model.ItemPathStone, Asset: model.AssetPathStone, Role: model.RoleFloor},
		},
		Harvest: []HarvestRule{
			{Asset: model.AssetTree, Loot: model.ResourceWood, Amount: 1, Tool: "axe", WrongToolText: "You need an axe to chop trees"},
			{Asset: model.AssetRock, Loot: model.ResourceStone, Amount: 1, Tool: "pickaxe", WrongToolText: "You need a pickaxe to mine rocks"},
			{Asset: model.AssetClayNode, Loot: model.ResourceClay, Amount: 1, Tool: "shovel", WrongToolText: "You need a shovel to dig clay"},
			// No server-side tool check: the client gates cotton picking on the knife.
			{Asset: model.AssetCottonBush, Loot: model.ResourceCotton, Amount: 1},
			{Asset: model.AssetAppleTree, Loot: model.ResourceApple, Amount: 1, Renewable: true},
		},
	}
}
