// Package config loads the voxelverse YAML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gekko3d/voxelverse/world"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Tick        time.Duration     `yaml:"tick"`
	History     HistoryConfig     `yaml:"history"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Server      ServerConfig      `yaml:"server"`
	Editor      EditorConfig      `yaml:"editor"`
	Palette     []string          `yaml:"palette"`
	Ground      GroundConfig      `yaml:"ground"`
	Export      ExportConfig      `yaml:"export"`
}

type LogConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// PersistenceConfig selects where the world is saved.
type PersistenceConfig struct {
	Driver        string        `yaml:"driver"` // sqlite | file | memory
	Path          string        `yaml:"path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EditorConfig is the selection the editor starts with.
type EditorConfig struct {
	Color    string `yaml:"color"`
	Material string `yaml:"material"`
}

type GroundConfig struct {
	HalfExtent float32 `yaml:"half_extent"`
}

type ExportConfig struct {
	Binary bool `yaml:"binary"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Export: ExportConfig{Binary: true}}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Config{Export: ExportConfig{Binary: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Prefix == "" {
		c.Log.Prefix = "voxelverse"
	}
	if c.Tick <= 0 {
		c.Tick = 50 * time.Millisecond
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = 20
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = "sqlite"
	}
	if c.Persistence.Path == "" {
		switch c.Persistence.Driver {
		case "file":
			c.Persistence.Path = "voxelverse.json"
		default:
			c.Persistence.Path = "voxelverse.db"
		}
	}
	if c.Persistence.FlushInterval <= 0 {
		c.Persistence.FlushInterval = time.Second
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if len(c.Palette) == 0 {
		for _, col := range world.DefaultPalette {
			c.Palette = append(c.Palette, col.Hex())
		}
	}
	if c.Editor.Color == "" {
		c.Editor.Color = c.Palette[0]
	}
	if c.Editor.Material == "" {
		c.Editor.Material = world.Solid.String()
	}
	if c.Ground.HalfExtent <= 0 {
		c.Ground.HalfExtent = 50
	}
}

// Validate checks values the defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Persistence.Driver {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("persistence.driver: unknown driver %q", c.Persistence.Driver)
	}
	for i, s := range c.Palette {
		if _, err := world.ParseColor(s); err != nil {
			return fmt.Errorf("palette[%d]: %w", i, err)
		}
	}
	if _, err := world.ParseColor(c.Editor.Color); err != nil {
		return fmt.Errorf("editor.color: %w", err)
	}
	if tag := strings.ToUpper(strings.TrimSpace(c.Editor.Material)); world.ParseMaterial(tag).String() != tag {
		return fmt.Errorf("editor.material: unknown material %q", c.Editor.Material)
	}
	return nil
}

// PaletteColors returns the palette parsed. Call after Validate.
func (c *Config) PaletteColors() []world.Color {
	out := make([]world.Color, 0, len(c.Palette))
	for _, s := range c.Palette {
		if col, err := world.ParseColor(s); err == nil {
			out = append(out, col)
		}
	}
	return out
}

// Selection returns the configured starting paint.
func (c *Config) Selection() (world.Color, world.Material) {
	col, err := world.ParseColor(c.Editor.Color)
	if err != nil {
		col = world.DefaultPalette[0]
	}
	return col, world.ParseMaterial(c.Editor.Material)
}
