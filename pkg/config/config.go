// Package config loads stash settings from YAML/JSON files or flat connection-detail maps.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full set of stash settings.
type Config struct {
	Backend   string      `yaml:"backend" json:"backend" mapstructure:"backend"`
	Redis     RedisConfig `yaml:"redis" json:"redis" mapstructure:"redis"`
	KeyPrefix string      `yaml:"key_prefix" json:"key_prefix" mapstructure:"key_prefix"`
	Lock      LockConfig  `yaml:"lock" json:"lock" mapstructure:"lock"`
	LogLevel  string      `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	HTTPAddr  string      `yaml:"http_addr" json:"http_addr" mapstructure:"http_addr"`

	// Entities are record names managed without a Go type (CLI and HTTP surfaces).
	Entities []string `yaml:"entities" json:"entities" mapstructure:"entities"`
	// Finders are "Entity.method" pairs exposed over HTTP, e.g. "Book.findByTitle".
	Finders []string `yaml:"finders" json:"finders" mapstructure:"finders"`
}

// RedisConfig holds the connection details of the Redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" json:"password" mapstructure:"password"`
	DB       int           `yaml:"db" json:"db" mapstructure:"db"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"` // Socket read/write timeout
	PoolSize int           `yaml:"pool_size" json:"pool_size" mapstructure:"pool_size"`
}

// LockConfig tunes pessimistic locking.
type LockConfig struct {
	TTL  time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
	Wait time.Duration `yaml:"wait" json:"wait" mapstructure:"wait"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Backend: BackendRedis,
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			Timeout: 30 * time.Second,
		},
		Lock: LockConfig{
			TTL:  30 * time.Second,
			Wait: 5 * time.Second,
		},
		LogLevel: "info",
		HTTPAddr: ":8080",
	}
}

// Load reads a configuration file (YAML or JSON) on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	raw := make(map[string]any)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// FromMap builds a Config from flat connection details such as
// {"host": "redis", "port": "6380", "db": "2", "timeout": "5s"}.
// Dotted keys ("lock.ttl") address nested settings.
func FromMap(details map[string]string) (*Config, error) {
	cfg := Default()
	raw := make(map[string]any)
	redis := make(map[string]any)

	host, port := details["host"], details["port"]
	for k, v := range details {
		switch k {
		case "host", "port":
			continue
		case "addr", "password", "db", "timeout", "pool_size":
			redis[k] = v
		default:
			if section, key, ok := strings.Cut(k, "."); ok {
				nested, _ := raw[section].(map[string]any)
				if nested == nil {
					nested = make(map[string]any)
					raw[section] = nested
				}
				nested[key] = v
				continue
			}
			raw[k] = v
		}
	}
	if host != "" || port != "" {
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "6379"
		}
		redis["addr"] = host + ":" + port
	}
	if len(redis) > 0 {
		raw["redis"] = redis
	}

	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("invalid connection details: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis backend requires an address")
	}
	if c.Lock.TTL < 0 || c.Lock.Wait < 0 {
		return fmt.Errorf("lock durations must not be negative")
	}
	for _, f := range c.Finders {
		if _, _, ok := strings.Cut(f, "."); !ok {
			return fmt.Errorf("finder %q must be written as Entity.method", f)
		}
	}
	return nil
}

func decode(input map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
