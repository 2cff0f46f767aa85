package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable consulted when no -config flag is given.
const EnvPath = "ZOMBRISE_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "config/server.toml"

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Network   NetworkConfig   `toml:"network"`
	Game      GameConfig      `toml:"game"`
	Arena     ArenaConfig     `toml:"arena"`
	Scripting ScriptingConfig `toml:"scripting"`
	Logging   LoggingConfig   `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	Seed      int64  `toml:"seed"` // 0 = seed from clock
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress       string        `toml:"bind_address"`
	WSAddress         string        `toml:"ws_address"` // empty disables the websocket listener
	WSPath            string        `toml:"ws_path"`
	TickHz            int           `toml:"tick_hz"`
	InQueueSize       int           `toml:"in_queue_size"`
	OutQueueSize      int           `toml:"out_queue_size"`
	MaxPacketsPerTick int           `toml:"max_packets_per_tick"`
	MaxClients        int           `toml:"max_clients"`
	CompressThreshold int           `toml:"compress_threshold"` // bytes; 0 disables zstd
	WriteTimeout      time.Duration `toml:"write_timeout"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
}

// TickInterval converts TickHz into the fixed simulation step.
func (n NetworkConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(n.TickHz)
}

type GameConfig struct {
	PlayerSpeed          float64       `toml:"player_speed"`
	JumpVelocity         float64       `toml:"jump_velocity"`
	GroundedEpsilon      float64       `toml:"grounded_epsilon"`
	ZombieSpeed          float64       `toml:"zombie_speed"`
	ChaseRange           float64       `toml:"chase_range"`
	WanderChangeChance   float64       `toml:"wander_change_chance"`
	CollisionDistance    float64       `toml:"collision_distance"`
	DamagePerSecond      float64       `toml:"damage_per_second"`
	AttackRange          float64       `toml:"attack_range"`
	PlayerDamage         float64       `toml:"player_damage"`
	FlashDuration        float64       `toml:"flash_duration"`
	FallDeathY           float64       `toml:"fall_death_y"`
	SpawnInterval        time.Duration `toml:"spawn_interval"`
	ZombieCap            int           `toml:"zombie_cap"`
	ZombieSpawnExtent    float64       `toml:"zombie_spawn_extent"`
	ZombieSpawnY         float64       `toml:"zombie_spawn_y"`
	PlayerSpawn          [3]float64    `toml:"player_spawn"`
	PlayerMaxHealth      float64       `toml:"player_max_health"`
	ArenaGrowthPerPlayer float64       `toml:"arena_growth_per_player"`
}

type ArenaConfig struct {
	File string `toml:"file"` // empty = built-in layout
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type LoggingConfig struct {
	Level         string        `toml:"level"`
	Format        string        `toml:"format"`         // "json" or "console"
	StatsInterval time.Duration `toml:"stats_interval"` // 0 disables the periodic summary
}

// RateLimitConfig caps packets per second per client. Packets over the cap
// are dropped; the client stays connected.
type RateLimitConfig struct {
	Enabled          bool `toml:"enabled"`
	PacketsPerSecond int  `toml:"packets_per_second"`
}

// Load reads the TOML file at path over the defaults. When path is the
// default location and the file does not exist, defaults are returned.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// ResolvePath picks the config path: explicit flag, then EnvPath, then
// DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	return DefaultPath
}

// Default returns a fresh copy of the built-in configuration.
func Default() *Config { return defaults() }

func (c *Config) Validate() error {
	n, g := c.Network, c.Game
	switch {
	case n.TickHz <= 0 || n.TickHz > 1000:
		return fmt.Errorf("network.tick_hz must be in 1..1000, got %d", n.TickHz)
	case n.InQueueSize <= 0 || n.OutQueueSize <= 0:
		return errors.New("network queue sizes must be positive")
	case n.MaxPacketsPerTick <= 0:
		return errors.New("network.max_packets_per_tick must be positive")
	case n.CompressThreshold < 0:
		return errors.New("network.compress_threshold must not be negative")
	case g.ZombieCap < 0:
		return errors.New("game.zombie_cap must not be negative")
	case g.SpawnInterval <= 0:
		return errors.New("game.spawn_interval must be positive")
	case g.PlayerMaxHealth <= 0:
		return errors.New("game.player_max_health must be positive")
	case g.ChaseRange < 0 || g.CollisionDistance < 0 || g.AttackRange < 0:
		return errors.New("game ranges must not be negative")
	case g.WanderChangeChance < 0 || g.WanderChangeChance > 1:
		return errors.New("game.wander_change_chance must be in [0,1]")
	case g.FlashDuration < 0:
		return errors.New("game.flash_duration must not be negative")
	case c.Logging.StatsInterval < 0:
		return errors.New("logging.stats_interval must not be negative")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "Zombrise",
		},
		Network: NetworkConfig{
			BindAddress:       "0.0.0.0:7777",
			WSAddress:         "0.0.0.0:7778",
			WSPath:            "/ws",
			TickHz:            60,
			InQueueSize:       128,
			OutQueueSize:      256,
			MaxPacketsPerTick: 32,
			MaxClients:        64,
			CompressThreshold: 512,
			WriteTimeout:      10 * time.Second,
			ReadTimeout:       60 * time.Second,
		},
		Game: GameConfig{
			PlayerSpeed:          5.0,
			JumpVelocity:         5.0,
			GroundedEpsilon:      0.1,
			ZombieSpeed:          2.0,
			ChaseRange:           10.0,
			WanderChangeChance:   0.02,
			CollisionDistance:    1.5,
			DamagePerSecond:      10.0,
			AttackRange:          2.0,
			PlayerDamage:         10.0,
			FlashDuration:        0.3,
			FallDeathY:           -10.0,
			SpawnInterval:        20 * time.Second,
			ZombieCap:            30,
			ZombieSpawnExtent:    20.0,
			ZombieSpawnY:         1.0,
			PlayerSpawn:          [3]float64{0, 1, 0},
			PlayerMaxHealth:      100,
			ArenaGrowthPerPlayer: 0.2,
		},
		Arena: ArenaConfig{
			File: "data/arena.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "console",
			StatsInterval: time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:          false,
			PacketsPerSecond: 600,
		},
	}
}
