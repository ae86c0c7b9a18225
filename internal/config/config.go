package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/statengine/internal/stat"
)

// EnvPrefix prefixes every environment override, e.g. STATENGINE_LOG_LEVEL.
const EnvPrefix = "STATENGINE_"

// InitMode selects how the stat registry is populated at startup.
type InitMode string

const (
	InitEager     InitMode = "eager"     // every stat kind
	InitSelective InitMode = "selective" // only Registry.Kinds (possibly none)
)

// Engine holds all configuration for the stat engine process.
type Engine struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Registry RegistryConfig `yaml:"registry" envPrefix:"REGISTRY_"`

	// Batch recompute cadence of the tick loop
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	// Pending mutation capacity of the tick loop
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`

	// Base scalar profile applied at startup (see internal/profile)
	Profile string `yaml:"profile" env:"PROFILE"`
	// Owner whose persisted scalars are loaded when the database is enabled
	OwnerID int64 `yaml:"owner_id" env:"OWNER_ID"`

	Metrics  MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`
}

// RegistryConfig mirrors the stat.Registry construction options.
type RegistryConfig struct {
	Init          InitMode    `yaml:"init" env:"INIT"`
	Kinds         []stat.Kind `yaml:"kinds" env:"KINDS" envSeparator:","`
	EventsEnabled bool        `yaml:"events_enabled" env:"EVENTS_ENABLED"`
	AutoRecompute bool        `yaml:"auto_recompute" env:"AUTO_RECOMPUTE"`
}

// Options converts the config into registry options.
func (c RegistryConfig) Options() []stat.Option {
	opts := []stat.Option{
		stat.WithEventsEnabled(c.EventsEnabled),
		stat.WithAutoRecompute(c.AutoRecompute),
	}
	if c.Init == InitEager {
		opts = append(opts, stat.WithEagerInit())
	} else {
		opts = append(opts, stat.WithKinds(c.Kinds...))
	}
	return opts
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Address string `yaml:"address" env:"ADDRESS"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultEngine returns Engine config with sensible defaults.
// Auto-recompute is off: the tick loop recomputes dirty stats once per tick.
func DefaultEngine() Engine {
	return Engine{
		LogLevel: "info",
		Registry: RegistryConfig{
			Init:          InitEager,
			EventsEnabled: true,
			AutoRecompute: false,
		},
		TickInterval: 100 * time.Millisecond,
		QueueSize:    256,
		Profile:      "fighter",
		Metrics: MetricsConfig{
			Enabled: true,
			Address: "127.0.0.1:9108",
		},
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "statengine",
			Password: "statengine",
			DBName:   "statengine",
			SSLMode:  "disable",
		},
	}
}

// LoadEngine loads engine config from a YAML file, then applies
// STATENGINE_* environment overrides.
// If the file doesn't exist, defaults are used as the base.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseEnv applies STATENGINE_* environment variables onto target.
// Unset variables leave the current values untouched.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks values that YAML decoding cannot.
func (c Engine) Validate() error {
	switch c.Registry.Init {
	case InitEager, InitSelective:
	default:
		return fmt.Errorf("registry.init: unknown mode %q", c.Registry.Init)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	return nil
}
