// Package config loads the daemon configuration from a YAML file with
// environment variable overrides, so container deployments can run without
// a config file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full daemon configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Observability ObservabilityConfig `yaml:"observability"`
	Daemon        DaemonConfig        `yaml:"daemon"`
	GeoIP         GeoIPConfig         `yaml:"geoip"`
	Notify        NotifyConfig        `yaml:"notify"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. NKeySeedFile is optional; when set
// the connection authenticates with the nkey seed stored there.
type NATSConfig struct {
	URL          string `yaml:"url"`
	NKeySeedFile string `yaml:"nkey_seed_file"`
}

// ObservabilityConfig holds the ops surface configuration. An empty
// MetricsAddress disables the ops HTTP server.
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
	Debug          bool   `yaml:"debug"`
}

// DaemonConfig holds stat-processing knobs.
type DaemonConfig struct {
	// DefaultGame is the game code assumed for servers without a record.
	DefaultGame string `yaml:"default_game"`
	// ConnectWindow dedups repeated connect events per server and player.
	ConnectWindow time.Duration `yaml:"connect_window"`
	// FallbackPenalty is the skill charge for suicides and teamkills when
	// no ranking engine is wired.
	FallbackPenalty int `yaml:"fallback_penalty"`
	// SessionMaxAge marks sessions stale for the periodic sweep.
	SessionMaxAge time.Duration `yaml:"session_max_age"`
	// SweepInterval schedules the session sweep job.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// GeoIPConfig holds the enrichment pipeline configuration.
type GeoIPConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	BatchSize         int           `yaml:"batch_size"`
}

// NotifyConfig lists the event kinds published to the notify subjects.
type NotifyConfig struct {
	Events []string `yaml:"events"`
}

// LoadConfig loads the configuration from a YAML file, then applies
// environment overrides. A missing file is fine as long as the required
// values arrive through the environment.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
		// Env-only deployments ship no file.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not set: provide postgres.dsn or DATABASE_URL")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL not set: provide nats.url or NATS_URL")
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED_FILE"); v != "" {
		cfg.NATS.NKeySeedFile = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Observability.Debug = v == "true"
	}
	if v := os.Getenv("DEFAULT_GAME"); v != "" {
		cfg.Daemon.DefaultGame = v
	}
	if v := os.Getenv("CONNECT_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Daemon.ConnectWindow = d
		}
	}
	if v := os.Getenv("FALLBACK_PENALTY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Daemon.FallbackPenalty = n
		}
	}
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Daemon.SessionMaxAge = d
		}
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Daemon.SweepInterval = d
		}
	}
	if v := os.Getenv("GEOIP_ENDPOINT"); v != "" {
		cfg.GeoIP.Endpoint = v
	}
	if v := os.Getenv("GEOIP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GeoIP.Timeout = d
		}
	}
	if v := os.Getenv("GEOIP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.GeoIP.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("GEOIP_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GeoIP.CacheTTL = d
		}
	}
	if v := os.Getenv("GEOIP_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GeoIP.BatchSize = n
		}
	}
	if v := os.Getenv("NOTIFY_EVENTS"); v != "" {
		cfg.Notify.Events = splitList(v)
	}
}

// splitList parses a comma-separated env value, trimming blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
