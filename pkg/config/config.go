package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the client configuration
type Config struct {
	// Relays are the relay URLs to connect to
	Relays []string `yaml:"relays"`

	// DatabasePath is the SQLite file backing the event store
	DatabasePath string `yaml:"database_path"`

	// PrivateKey is the account's hex-encoded private key.
	// Prefer the WANNSEE_PRIVATE_KEY environment variable over
	// writing it to disk.
	PrivateKey string `yaml:"private_key"`

	// QueueCapacity is the buffer size for pipeline queues
	QueueCapacity int `yaml:"queue_capacity"`

	// IngestRate caps inbound events per second per relay;
	// zero disables throttling
	IngestRate float64 `yaml:"ingest_rate"`

	// ClientName is advertised in the client tag of published events
	ClientName string `yaml:"client_name"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Relays:        []string{"wss://relay.damus.io"},
		DatabasePath:  "wannsee.db",
		QueueCapacity: 1000,
		IngestRate:    0,
		ClientName:    "wannsee",
	}
}

// Load reads configuration from the file (if it exists) and applies
// environment overrides
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			// A missing file falls back to defaults silently
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			cfg.merge(&fileCfg)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) merge(other *Config) {
	if len(other.Relays) > 0 {
		c.Relays = other.Relays
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.PrivateKey != "" {
		c.PrivateKey = other.PrivateKey
	}
	if other.QueueCapacity > 0 {
		c.QueueCapacity = other.QueueCapacity
	}
	if other.IngestRate > 0 {
		c.IngestRate = other.IngestRate
	}
	if other.ClientName != "" {
		c.ClientName = other.ClientName
	}
}

func (c *Config) applyEnv() {
	if val := os.Getenv("WANNSEE_RELAYS"); val != "" {
		c.Relays = nil
		for _, url := range strings.Split(val, ",") {
			if url = strings.TrimSpace(url); url != "" {
				c.Relays = append(c.Relays, url)
			}
		}
	}
	if val := os.Getenv("WANNSEE_DATABASE_PATH"); val != "" {
		c.DatabasePath = val
	}
	if val := os.Getenv("WANNSEE_PRIVATE_KEY"); val != "" {
		c.PrivateKey = val
	}
	if val := os.Getenv("WANNSEE_QUEUE_CAPACITY"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.QueueCapacity = parsed
		}
	}
	if val := os.Getenv("WANNSEE_INGEST_RATE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			c.IngestRate = parsed
		}
	}
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if len(c.Relays) == 0 {
		return fmt.Errorf("at least one relay is required")
	}
	for _, url := range c.Relays {
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			return fmt.Errorf("relay URL %q must use ws:// or wss://", url)
		}
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be positive")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required (set WANNSEE_PRIVATE_KEY)")
	}
	return nil
}
