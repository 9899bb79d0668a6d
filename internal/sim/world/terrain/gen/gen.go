// Package gen is the deterministic world generator: one row-major sweep over an
// N×N grid with exclusion zones, a noise-derived water mask and a cascading
// probability table.
package gen

import (
	"math/rand/v2"

	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/noise"
)

// Rect is a half-open rectangle: X <= x < X+W, Y <= y < Y+H.
type Rect struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Rule is one row of the cascading placement table. Order fixes priority.
type Rule struct {
	Asset       model.Asset
	Role        model.Role
	Probability float64
}

type Config struct {
	Size      int
	Seed      int64 // placement stream
	NoiseSeed int64 // permutation table

	SafeZone Rect
	House    Rect
	Starter  Rect

	NoiseScale     float64
	WaterThreshold float64

	Rules []Rule
}

// WaterMap classifies every cell of the grid, indexed [y][x]. Cells in the house
// footprint or the starter rectangle are never water.
func WaterMap(cfg Config) [][]bool {
	field := noise.New(cfg.NoiseSeed)
	water := make([][]bool, cfg.Size)
	for y := 0; y < cfg.Size; y++ {
		row := make([]bool, cfg.Size)
		for x := 0; x < cfg.Size; x++ {
			row[x] = IsWater(cfg, field, x, y)
		}
		water[y] = row
	}
	return water
}

func IsWater(cfg Config, field *noise.Field, x, y int) bool {
	if cfg.House.Contains(x, y) || cfg.Starter.Contains(x, y) {
		return false
	}
	n := field.Normalized(float64(x)*cfg.NoiseScale, float64(y)*cfg.NoiseScale)
	return n < cfg.WaterThreshold
}

// Excluded reports whether generation may never place anything at (x, y),
// ignoring water.
func Excluded(cfg Config, x, y int) bool {
	return cfg.SafeZone.Contains(x, y) || cfg.House.Contains(x, y)
}

// Pick returns the index of the rule whose cumulative boundary first exceeds roll,
// or -1 when the roll falls past every boundary.
func Pick(rules []Rule, roll float64) int {
	cumulative := 0.0
	for i, r := range rules {
		cumulative += r.Probability
		if roll < cumulative {
			return i
		}
	}
	return -1
}

// Generate produces the initial entities in sweep order. Same config, same output.
func Generate(cfg Config) []model.Entity {
	water := WaterMap(cfg)
	rng := newStream(cfg.Seed)

	var out []model.Entity
	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			if Excluded(cfg, x, y) || water[y][x] {
				continue
			}
			i := Pick(cfg.Rules, rng.Float64())
			if i < 0 {
				continue
			}
			r := cfg.Rules[i]
			out = append(out, model.Entity{
				ID:    model.GeneratedID(r.Asset, x, y),
				Asset: r.Asset,
				Role:  r.Role,
				X:     x,
				Y:     y,
			})
		}
	}
	return out
}

func newStream(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
