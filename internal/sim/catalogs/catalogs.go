package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"haven.world/internal/sim/world/feature/work"
	"haven.world/internal/sim/world/kernel/model"
)

// Catalogs are the immutable game tables: what can be built, crafted, placed and
// harvested. Loaded once at startup and shared read-only.
type Catalogs struct {
	Builds     BuildCatalog
	Crafts     CraftCatalog
	Placements PlacementCatalog
	Harvest    HarvestCatalog

	Digest string
}

type BuildCatalog struct {
	ByID map[string]BuildRecipe
}

type BuildRecipe struct {
	ID    string                 `json:"id"`
	Cost  map[model.Resource]int `json:"cost"`
	Asset model.Asset            `json:"asset"`
	Role  model.Role             `json:"type"`
}

type CraftCatalog struct {
	ByID map[string]CraftRecipe
}

type CraftRecipe struct {
	ID     string                 `json:"id"`
	Cost   map[model.Resource]int `json:"cost"`
	Output model.Item             `json:"output"`
	Yield  int                    `json:"yield"`
}

type PlacementCatalog struct {
	ByItem map[model.Item]Placement
}

// Placement turns one inventory item into a world entity.
type Placement struct {
	Item  model.Item  `json:"item"`
	Asset model.Asset `json:"asset"`
	Role  model.Role  `json:"type"`
}

type HarvestCatalog struct {
	ByAsset map[model.Asset]HarvestRule
}

type HarvestRule struct {
	Asset  model.Asset    `json:"asset"`
	Loot   model.Resource `json:"loot"`
	Amount int            `json:"amount"`
	// Tool is a family name ("axe", "pickaxe", "shovel"); empty means no check.
	Tool          string `json:"tool,omitempty"`
	WrongToolText string `json:"wrong_tool_message,omitempty"`
	// Renewable entities stay in the world after a harvest.
	Renewable bool `json:"renewable,omitempty"`
}

func (r HarvestRule) ToolFamily() work.ToolFamily { return work.ParseToolFamily(r.Tool) }

type fileFormat struct {
	Build      []BuildRecipe `json:"build"`
	Craft      []CraftRecipe `json:"craft"`
	Placements []Placement   `json:"placements"`
	Harvest    []HarvestRule `json:"harvest"`
}

func (c *Catalogs) Build(id string) (BuildRecipe, bool) {
	r, ok := c.Builds.ByID[id]
	return r, ok
}

func (c *Catalogs) Craft(id string) (CraftRecipe, bool) {
	r, ok := c.Crafts.ByID[id]
	return r, ok
}

func (c *Catalogs) Placement(item model.Item) (Placement, bool) {
	p, ok := c.Placements.ByItem[item]
	return p, ok
}

func (c *Catalogs) HarvestRule(asset model.Asset) (HarvestRule, bool) {
	r, ok := c.Harvest.ByAsset[asset]
	return r, ok
}

// Load reads recipes.json from configDir. A missing file yields Default().
func Load(configDir string) (*Catalogs, error) {
	path := filepath.Join(configDir, "recipes.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	c, err := build(f)
	if err != nil {
		return nil, fmt.Errorf("recipes.json: %w", err)
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

// Default returns the built-in tables.
func Default() *Catalogs {
	f := defaultFile()
	c, err := build(f)
	if err != nil {
		panic(err)
	}
	raw, _ := json.Marshal(f)
	c.Digest = sha256Hex(raw)
	return c
}

func build(f fileFormat) (*Catalogs, error) {
	c := &Catalogs{
		Builds:     BuildCatalog{ByID: map[string]BuildRecipe{}},
		Crafts:     CraftCatalog{ByID: map[string]CraftRecipe{}},
		Placements: PlacementCatalog{ByItem: map[model.Item]Placement{}},
		Harvest:    HarvestCatalog{ByAsset: map[model.Asset]HarvestRule{}},
	}
	for _, r := range f.Build {
		if r.ID == "" || r.Asset == "" {
			return nil, fmt.Errorf("build recipe: empty id or asset")
		}
		if !r.Role.Valid() {
			return nil, fmt.Errorf("build recipe %s: bad type %q", r.ID, r.Role)
		}
		if err := checkCost(r.ID, r.Cost); err != nil {
			return nil, err
		}
		c.Builds.ByID[r.ID] = r
	}
	for _, r := range f.Craft {
		if r.ID == "" || r.Output == "" {
			return nil, fmt.Errorf("craft recipe: empty id or output")
		}
		if r.Yield <= 0 {
			r.Yield = 1
		}
		if err := checkCost(r.ID, r.Cost); err != nil {
			return nil, err
		}
		c.Crafts.ByID[r.ID] = r
	}
	for _, p := range f.Placements {
		if p.Item == "" || p.Asset == "" {
			return nil, fmt.Errorf("placement: empty item or asset")
		}
		if !p.Role.Valid() {
			return nil, fmt.Errorf("placement %s: bad type %q", p.Item, p.Role)
		}
		c.Placements.ByItem[p.Item] = p
	}
	for _, h := range f.Harvest {
		if h.Asset == "" || h.Loot == "" {
			return nil, fmt.Errorf("harvest rule: empty asset or loot")
		}
		if h.Amount <= 0 {
			h.Amount = 1
		}
		if h.Tool != "" && work.ParseToolFamily(h.Tool) == work.ToolFamilyNone {
			return nil, fmt.Errorf("harvest rule %s: unknown tool %q", h.Asset, h.Tool)
		}
		if h.Tool != "" && h.WrongToolText == "" {
			h.WrongToolText = fmt.Sprintf("wrong tool: %s needs a %s", h.Asset, h.Tool)
		}
		c.Harvest.ByAsset[h.Asset] = h
	}
	return c, nil
}

func checkCost(id string, cost map[model.Resource]int) error {
	if len(cost) == 0 {
		return fmt.Errorf("recipe %s: empty cost", id)
	}
	for res, n := range cost {
		if n <= 0 {
			return fmt.Errorf("recipe %s: cost of %s must be > 0", id, res)
		}
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
