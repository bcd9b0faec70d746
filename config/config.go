package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TCP struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // presence-server
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
	File      string `yaml:"file"`      // empty = stdout
}

type Postgres struct {
	DSN string `yaml:"dsn"` // empty = in-memory user store
}

type Limits struct {
	MaxFrameBytes int    `yaml:"maxFrameBytes"`
	SendQueueSize int    `yaml:"sendQueueSize"`
	IdleTimeout   string `yaml:"idleTimeout"` // Go duration, empty = disabled
}

type Config struct {
	TCP         TCP      `yaml:"tcp"`
	HTTP        HTTP     `yaml:"http"`
	Logging     Logging  `yaml:"logging"`
	Postgres    Postgres `yaml:"postgres"`
	Limits      Limits   `yaml:"limits"`
	DefaultRoom string   `yaml:"defaultRoom"`
}

// Load reads the YAML config at path; an empty path falls back to
// CONFIG_PATH, then to ./config/config.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config usable without a file on disk.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.TCP.Addr == "" {
		c.TCP.Addr = ":7777"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.DefaultRoom == "" {
		c.DefaultRoom = "lobby"
	}
	if c.Limits.MaxFrameBytes <= 0 {
		c.Limits.MaxFrameBytes = 1 << 20
	}
	if c.Limits.SendQueueSize <= 0 {
		c.Limits.SendQueueSize = 256
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "presence-server"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
}

// IdleTimeout parses the liveness window; malformed or empty disables it.
func (c *Config) IdleTimeout() time.Duration {
	return parseDurationOr(0, c.Limits.IdleTimeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
