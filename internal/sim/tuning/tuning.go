package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"haven.world/internal/protocol"
	"haven.world/internal/sim/world/feature/economy/ledger"
	"haven.world/internal/sim/world/kernel/model"
	"haven.world/internal/sim/world/terrain/gen"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	World   World   `yaml:"world"`
	Player  Player  `yaml:"player"`
	Harvest Harvest `yaml:"harvest"`
	Chat    Chat    `yaml:"chat"`
	Server  Server  `yaml:"server"`
}

type World struct {
	Size      int   `yaml:"size"`
	Seed      int64 `yaml:"seed"`
	NoiseSeed int64 `yaml:"noise_seed"`

	SafeZone gen.Rect `yaml:"safe_zone"`
	House    gen.Rect `yaml:"house"`
	Starter  gen.Rect `yaml:"starter"`

	NoiseScale     float64 `yaml:"noise_scale"`
	WaterThreshold float64 `yaml:"water_threshold"`

	Rules []Rule `yaml:"rules"`
}

type Rule struct {
	Asset       string  `yaml:"asset"`
	Type        string  `yaml:"type"`
	Probability float64 `yaml:"probability"`
}

type Player struct {
	SpawnX         float64        `yaml:"spawn_x"`
	SpawnY         float64        `yaml:"spawn_y"`
	StartingWallet map[string]int `yaml:"starting_wallet"`
}

type Harvest struct {
	Radius float64 `yaml:"radius"`
}

type Chat struct {
	MaxRunes   int     `yaml:"max_runes"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

type Server struct {
	OutboundQueue   int `yaml:"outbound_queue"`
	InboxSize       int `yaml:"inbox_size"`
	FlushIntervalMs int `yaml:"flush_interval_ms"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: protocol.Version,
		World: World{
			Size:           100,
			Seed:           42,
			NoiseSeed:      42,
			SafeZone:       gen.Rect{X: 0, Y: 0, W: 13, H: 13},
			House:          gen.Rect{X: 15, Y: 15, W: 6, H: 6},
			Starter:        gen.Rect{X: 0, Y: 0, W: 5, H: 5},
			NoiseScale:     0.04,
			WaterThreshold: 0.3,
			Rules: []Rule{
				{Asset: "tree", Type: "obstacle", Probability: 0.10},
				{Asset: "rock", Type: "obstacle", Probability: 0.05},
				{Asset: "cotton_bush", Type: "obstacle", Probability: 0.04},
				{Asset: "clay_node", Type: "obstacle", Probability: 0.03},
				{Asset: "apple_tree", Type: "obstacle", Probability: 0.02},
			},
		},
		Player: Player{
			SpawnX:         5,
			SpawnY:         5,
			StartingWallet: map[string]int{"wood": 0, "stone": 0},
		},
		Harvest: Harvest{Radius: 3.0},
		Chat:    Chat{MaxRunes: 280, RatePerSec: 1, Burst: 5},
		Server:  Server{OutboundQueue: 256, InboxSize: 1024, FlushIntervalMs: 5000},
	}
}

// Load overlays path onto Defaults and validates the result.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	// Sequences (rules) replace the default list; maps merge key by key.
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ProtocolVersion != protocol.Version {
		return fmt.Errorf("protocol_version %q not supported (server speaks %q)", t.ProtocolVersion, protocol.Version)
	}
	w := t.World
	if w.Size <= 0 {
		return errors.New("world.size must be > 0")
	}
	if w.NoiseScale <= 0 {
		return errors.New("world.noise_scale must be > 0")
	}
	if len(w.Rules) == 0 {
		return errors.New("world.rules must not be empty")
	}
	sum := 0.0
	for _, r := range w.Rules {
		if r.Asset == "" {
			return errors.New("world.rules: empty asset")
		}
		if !model.Role(r.Type).Valid() {
			return fmt.Errorf("world.rules %s: bad type %q", r.Asset, r.Type)
		}
		if r.Probability < 0 {
			return fmt.Errorf("world.rules %s: negative probability", r.Asset)
		}
		sum += r.Probability
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("world.rules: probabilities sum to %.4f > 1", sum)
	}
	if t.Harvest.Radius <= 0 {
		return errors.New("harvest.radius must be > 0")
	}
	for res, n := range t.Player.StartingWallet {
		if n < 0 {
			return fmt.Errorf("player.starting_wallet %s: negative", res)
		}
	}
	if t.Chat.MaxRunes <= 0 || t.Chat.Burst <= 0 || t.Chat.RatePerSec <= 0 {
		return errors.New("chat: max_runes, burst and rate_per_sec must be > 0")
	}
	if t.Server.OutboundQueue <= 0 || t.Server.InboxSize <= 0 {
		return errors.New("server: queue sizes must be > 0")
	}
	return nil
}

// GenConfig converts the world section for the generator.
func (t Tuning) GenConfig() gen.Config {
	w := t.World
	rules := make([]gen.Rule, 0, len(w.Rules))
	for _, r := range w.Rules {
		rules = append(rules, gen.Rule{
			Asset:       model.Asset(r.Asset),
			Role:        model.Role(r.Type),
			Probability: r.Probability,
		})
	}
	return gen.Config{
		Size:           w.Size,
		Seed:           w.Seed,
		NoiseSeed:      w.NoiseSeed,
		SafeZone:       w.SafeZone,
		House:          w.House,
		Starter:        w.Starter,
		NoiseScale:     w.NoiseScale,
		WaterThreshold: w.WaterThreshold,
		Rules:          rules,
	}
}

func (t Tuning) LedgerConfig() ledger.Config {
	wallet := make(map[model.Resource]int, len(t.Player.StartingWallet))
	for k, v := range t.Player.StartingWallet {
		wallet[model.Resource(k)] = v
	}
	return ledger.Config{
		SpawnX:         t.Player.SpawnX,
		SpawnY:         t.Player.SpawnY,
		StartingWallet: wallet,
	}
}

func (t Tuning) FlushInterval() time.Duration {
	if t.Server.FlushIntervalMs <= 0 {
		return 0
	}
	return time.Duration(t.Server.FlushIntervalMs) * time.Millisecond
}
