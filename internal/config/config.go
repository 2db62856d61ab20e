package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lazypower/mindgraph/internal/graph"
)

// Environment variables that override the config file.
const (
	EnvDB   = "MINDGRAPH_DB"
	EnvAddr = "MINDGRAPH_ADDR"
	EnvLog  = "MINDGRAPH_LOG"
)

// Config holds all mindgraph configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Simulation SimulationConfig `toml:"simulation"`
	Log        LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Bind           string   `toml:"bind"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins for a dashboard served elsewhere
}

type DatabaseConfig struct {
	Path string `toml:"path"` // empty resolves to store.DefaultDBPath()
}

// SimulationConfig exposes every layout constant. Zero values fall back to
// the built-in defaults.
type SimulationConfig struct {
	FPS             int           `toml:"fps"`
	PersistInterval time.Duration `toml:"persist_interval"`
	SettleEnergy    float64       `toml:"settle_energy"`
	Autostart       bool          `toml:"autostart"`

	Repulsion       float64 `toml:"repulsion"`
	MinDistanceSq   float64 `toml:"min_distance_sq"`
	CollisionRadius float64 `toml:"collision_radius"`
	CollisionPush   float64 `toml:"collision_push"`
	ClusterStrength float64 `toml:"cluster_strength"`
	CenterGravity   float64 `toml:"center_gravity"`
	Damping         float64 `toml:"damping"`
	SpringLength    float64 `toml:"spring_length"`
	SpringStrength  float64 `toml:"spring_strength"`
	ClusterRadius   float64 `toml:"cluster_radius"`
	Seed            uint64  `toml:"seed"`
}

type LogConfig struct {
	Level       string `toml:"level"` // debug, info, warn, error
	Development bool   `toml:"development"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	p := graph.DefaultParams()
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Simulation: SimulationConfig{
			FPS:             60,
			PersistInterval: 10 * time.Second,
			SettleEnergy:    0.5,
			Autostart:       true,
			Repulsion:       p.Repulsion,
			MinDistanceSq:   p.MinDistanceSq,
			CollisionRadius: p.CollisionRadius,
			CollisionPush:   p.CollisionPush,
			ClusterStrength: p.ClusterStrength,
			CenterGravity:   p.CenterGravity,
			Damping:         p.Damping,
			SpringLength:    p.SpringLength,
			SpringStrength:  p.SpringStrength,
			ClusterRadius:   p.ClusterRadius,
			Seed:            p.Seed,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.mindgraph/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".mindgraph", "config.toml"), nil
}

// Load reads the TOML file at path over the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDB); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAddr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%s: bad port %q", EnvAddr, port)
		}
		c.Server.Bind, c.Server.Port = host, p
	}
	if v := os.Getenv(EnvLog); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Simulation.FPS < 0 || c.Simulation.FPS > 1000 {
		return fmt.Errorf("simulation.fps %d out of range", c.Simulation.FPS)
	}
	if d := c.Simulation.Damping; d < 0 || d >= 1 {
		return fmt.Errorf("simulation.damping %v must be in [0, 1)", d)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown", c.Log.Level)
	}
	return nil
}

// Save writes cfg to path as TOML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Bind, strconv.Itoa(c.Server.Port))
}

// Params converts the simulation section to layout constants.
func (s SimulationConfig) Params() graph.Params {
	return graph.Params{
		Repulsion:       s.Repulsion,
		MinDistanceSq:   s.MinDistanceSq,
		CollisionRadius: s.CollisionRadius,
		CollisionPush:   s.CollisionPush,
		ClusterStrength: s.ClusterStrength,
		CenterGravity:   s.CenterGravity,
		Damping:         s.Damping,
		SpringLength:    s.SpringLength,
		SpringStrength:  s.SpringStrength,
		ClusterRadius:   s.ClusterRadius,
		Seed:            s.Seed,
	}
}
