package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"dutchblitz/internal/domain"

	"gopkg.in/yaml.v3"
)

// EnvPrefix marks the runtime environment keys that override file settings.
const EnvPrefix = "blitz_"

// Layout holds the table geometry distances.
type Layout struct {
	FoundationSpacing float64 `json:"foundation_spacing" yaml:"foundation_spacing"`
	RingRadius        float64 `json:"ring_radius" yaml:"ring_radius"`
	PileRadius        float64 `json:"pile_radius" yaml:"pile_radius"`
	OutwardOffset     float64 `json:"outward_offset" yaml:"outward_offset"`
	VisibleSpacing    float64 `json:"visible_spacing" yaml:"visible_spacing"`
	RightmostOffset   float64 `json:"rightmost_offset" yaml:"rightmost_offset"`
	RecycleOffset     float64 `json:"recycle_offset" yaml:"recycle_offset"`
}

// Radii holds the proximity gates of each action.
type Radii struct {
	Foundation  float64 `json:"foundation" yaml:"foundation"`
	VisibleSlot float64 `json:"visible_slot" yaml:"visible_slot"`
	Blitz       float64 `json:"blitz" yaml:"blitz"`
	Recycle     float64 `json:"recycle" yaml:"recycle"`
	Cancel      float64 `json:"cancel" yaml:"cancel"`
}

// Bots controls computer-controlled players in Nakama matches.
type Bots struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// AutoFillDelaySeconds is how long a lone human waits before a bot joins.
	AutoFillDelaySeconds int `json:"auto_fill_delay_seconds" yaml:"auto_fill_delay_seconds"`
	MinDelayTicks        int `json:"min_delay_ticks" yaml:"min_delay_ticks"`
	MaxDelayTicks        int `json:"max_delay_ticks" yaml:"max_delay_ticks"`
}

type GameConfig struct {
	MaxPlayers        int    `json:"max_players" yaml:"max_players"`
	MinPlayersToStart int    `json:"min_players_to_start" yaml:"min_players_to_start"`
	FoundationCount   int    `json:"foundation_count" yaml:"foundation_count"`
	BlitzFaceUp       bool   `json:"blitz_face_up" yaml:"blitz_face_up"`
	TickRate          int    `json:"tick_rate" yaml:"tick_rate"`
	Layout            Layout `json:"layout" yaml:"layout"`
	Radii             Radii  `json:"radii" yaml:"radii"`
	Bots              Bots   `json:"bots" yaml:"bots"`
	// DevMode enables development-only intents such as force restart.
	DevMode bool `json:"dev_mode" yaml:"dev_mode"`

	// PointsCurrency is the wallet key final scores are credited to.
	PointsCurrency string `json:"points_currency" yaml:"points_currency"`
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// Default returns the built-in configuration.
func Default() *GameConfig {
	t := domain.DefaultTuning()
	return &GameConfig{
		MaxPlayers:        t.MaxPlayers,
		MinPlayersToStart: t.MinPlayersToStart,
		FoundationCount:   t.FoundationCount,
		BlitzFaceUp:       t.BlitzFaceUp,
		TickRate:          10,
		Layout: Layout{
			FoundationSpacing: t.FoundationSpacing,
			RingRadius:        t.RingRadius,
			PileRadius:        t.PileRadius,
			OutwardOffset:     t.OutwardOffset,
			VisibleSpacing:    t.VisibleSpacing,
			RightmostOffset:   t.RightmostOffset,
			RecycleOffset:     t.RecycleOffset,
		},
		Radii: Radii{
			Foundation:  t.FoundationRadius,
			VisibleSlot: t.VisibleSlotRadius,
			Blitz:       t.BlitzRadius,
			Recycle:     t.RecycleRadius,
			Cancel:      t.CancelRadius,
		},
		Bots: Bots{
			AutoFillDelaySeconds: 5,
			MinDelayTicks:        3,
			MaxDelayTicks:        8,
		},
		PointsCurrency: "blitz_points",
	}
}

// LoadGameConfig loads the game configuration from the given path once.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		c, err := Load(path)
		if err != nil {
			loadErr = err
			return
		}
		cfg = c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the defaults when
// none was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return Default()
	}
	return cfg
}

// Load reads a JSON or YAML file, chosen by extension, on top of the defaults.
func Load(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".json", ".yaml" or ".yml").
// Fields absent from data keep their default values.
func Parse(data []byte, ext string) (*GameConfig, error) {
	c := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported game config format %q", ext)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *GameConfig) Validate() error {
	switch {
	case c.MaxPlayers < 1:
		return fmt.Errorf("max_players must be positive, got %d", c.MaxPlayers)
	case c.MinPlayersToStart < 1 || c.MinPlayersToStart > c.MaxPlayers:
		return fmt.Errorf("min_players_to_start must be within 1..%d, got %d", c.MaxPlayers, c.MinPlayersToStart)
	case c.FoundationCount < 1:
		return fmt.Errorf("foundation_count must be positive, got %d", c.FoundationCount)
	case c.TickRate < 1 || c.TickRate > 60:
		return fmt.Errorf("tick_rate must be within 1..60, got %d", c.TickRate)
	case c.Bots.MinDelayTicks < 1 || c.Bots.MaxDelayTicks < c.Bots.MinDelayTicks:
		return fmt.Errorf("bot delay ticks must satisfy 1 <= min <= max, got %d..%d", c.Bots.MinDelayTicks, c.Bots.MaxDelayTicks)
	}
	for name, r := range map[string]float64{
		"foundation": c.Radii.Foundation, "visible_slot": c.Radii.VisibleSlot,
		"blitz": c.Radii.Blitz, "recycle": c.Radii.Recycle, "cancel": c.Radii.Cancel,
	} {
		if r <= 0 {
			return fmt.Errorf("radii.%s must be positive, got %v", name, r)
		}
	}
	return nil
}

// ApplyEnv overrides settings from blitz_* keys, e.g. blitz_max_players or
// blitz_cancel_radius. Unknown keys are ignored.
func (c *GameConfig) ApplyEnv(env map[string]string) error {
	ints := map[string]*int{
		"max_players":             &c.MaxPlayers,
		"min_players_to_start":    &c.MinPlayersToStart,
		"foundation_count":        &c.FoundationCount,
		"tick_rate":               &c.TickRate,
		"bot_auto_fill_delay_sec": &c.Bots.AutoFillDelaySeconds,
		"bot_min_delay_ticks":     &c.Bots.MinDelayTicks,
		"bot_max_delay_ticks":     &c.Bots.MaxDelayTicks,
	}
	floats := map[string]*float64{
		"foundation_radius":   &c.Radii.Foundation,
		"visible_slot_radius": &c.Radii.VisibleSlot,
		"blitz_radius":        &c.Radii.Blitz,
		"recycle_radius":      &c.Radii.Recycle,
		"cancel_radius":       &c.Radii.Cancel,
		"ring_radius":         &c.Layout.RingRadius,
		"pile_radius":         &c.Layout.PileRadius,
	}
	bools := map[string]*bool{
		"face_up":      &c.BlitzFaceUp,
		"bots_enabled": &c.Bots.Enabled,
		"dev_mode":     &c.DevMode,
	}

	for key, raw := range env {
		name, ok := strings.CutPrefix(strings.ToLower(key), EnvPrefix)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		switch {
		case ints[name] != nil:
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*ints[name] = v
		case floats[name] != nil:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*floats[name] = v
		case bools[name] != nil:
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*bools[name] = v
		case name == "points_currency":
			c.PointsCurrency = raw
		}
	}
	return c.Validate()
}

// Tuning converts the configuration to the engine's tuning values.
func (c *GameConfig) Tuning() domain.Tuning {
	if c == nil {
		return domain.DefaultTuning()
	}
	return domain.Tuning{
		MaxPlayers:        c.MaxPlayers,
		FoundationCount:   c.FoundationCount,
		MinPlayersToStart: c.MinPlayersToStart,
		FoundationSpacing: c.Layout.FoundationSpacing,
		RingRadius:        c.Layout.RingRadius,
		PileRadius:        c.Layout.PileRadius,
		OutwardOffset:     c.Layout.OutwardOffset,
		VisibleSpacing:    c.Layout.VisibleSpacing,
		RightmostOffset:   c.Layout.RightmostOffset,
		RecycleOffset:     c.Layout.RecycleOffset,
		FoundationRadius:  c.Radii.Foundation,
		VisibleSlotRadius: c.Radii.VisibleSlot,
		BlitzRadius:       c.Radii.Blitz,
		RecycleRadius:     c.Radii.Recycle,
		CancelRadius:      c.Radii.Cancel,
		BlitzFaceUp:       c.BlitzFaceUp,
		AllowForceRestart: c.DevMode,
	}
}
