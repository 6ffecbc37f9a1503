// Package config provides configuration management for the key-value
// store. It loads settings from a YAML file and environment variables,
// with thread-safe singleton access, the same way across the CLI and
// server front ends.
package config

import (
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds the values every front end needs to open a database and
// talk to a peer over the network.
type Config struct {
	DataDir           string `yaml:"DATA_DIR"`           // Directory containing the engine's on-disk files
	CompactionTrigger int    `yaml:"COMPACTION_TRIGGER"` // Live-key count above which a set triggers compaction
	ServerAddr        string `yaml:"SERVER_ADDR"`        // Default TCP address the server listens on
	Engine            string `yaml:"ENGINE"`             // Default engine name: "kvs" or "sled"
}

// Default returns the configuration used when no config.yml is present.
func Default() *Config {
	return &Config{
		DataDir:           ".",
		CompactionTrigger: 500,
		ServerAddr:        "127.0.0.1:4000",
		Engine:            "kvs",
	}
}

var (
	appConfig *Config
	once      sync.Once
	initErr   error
)

// LoadConfig reads configuration values from config.yml, falling back
// to Default() when the file is absent. It uses a sync.Once so that
// repeated calls from different front ends see one consistent
// configuration. Environment variables referenced in the YAML are
// expanded with os.ExpandEnv, and a .env file is loaded first if
// present (silently ignored when missing).
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file found", "error", err)
		}

		data, err := os.ReadFile("config.yml")
		if err != nil {
			if os.IsNotExist(err) {
				slog.Debug("config: no config.yml found, using defaults")
				appConfig = Default()
				return
			}
			initErr = err
			return
		}

		cfg := Default()
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			initErr = err
			return
		}
		appConfig = cfg
	})
	if initErr != nil {
		return nil, initErr
	}
	return appConfig, nil
}

// GetConfig returns the singleton configuration instance. Panics if
// LoadConfig has not been called successfully yet.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded - call LoadConfig() first")
	}
	return appConfig
}

// Reset clears the singleton so tests can reload configuration under
// different conditions. It is not used outside _test.go files.
func Reset() {
	appConfig = nil
	initErr = nil
	once = sync.Once{}
}
