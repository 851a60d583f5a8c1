package utils

import (
	"errors"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration, read once from a YAML file.
type Config struct {
	Port          int    `yaml:"port"`
	DefaultExpiry int64  `yaml:"default_expiry_ms"`
	Persistence   string `yaml:"persistence"`
	IsLeader      bool   `yaml:"leader"`
	LeaderAddr    string `yaml:"leader_addr"`
	Debug         bool   `yaml:"debug"`
}

var (
	configInstance *Config   // Singleton configInstance
	configOnce     sync.Once // Ensures thread-safe initialization
)

// LoadConfig initializes the singleton configInstance. A missing file is
// not an error: the defaults are used instead.
func LoadConfig(filename string) (*Config, error) {
	var err error
	configOnce.Do(func() {
		configInstance, err = loadConfigFromFile(filename)
	})
	if err != nil {
		return nil, err
	}
	return GetConfig()
}

// loadConfigFromFile reads and parses the config file
func loadConfigFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return getDefaultConfig(), nil
		}
		return nil, err
	}
	defer file.Close()

	config := &Config{}
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		// An empty config file decodes to EOF; treat it like a missing one.
		if errors.Is(err, io.EOF) {
			return getDefaultConfig(), nil
		}
		return nil, err
	}

	applyDefaults(config)
	return config, nil
}

// GetConfig returns the singleton config configInstance
func GetConfig() (*Config, error) {
	if configInstance == nil {
		return nil, errors.New("config not initialized, call LoadConfig() first")
	}
	return configInstance, nil
}

// getDefaultConfig returns default config values
func getDefaultConfig() *Config {
	return &Config{
		Port:          6380,
		DefaultExpiry: 0,
		Persistence:   "binlog",
		IsLeader:      false,
	}
}

// applyDefaults ensures missing values get defaults
func applyDefaults(config *Config) {
	if config.Port == 0 {
		config.Port = 6380
	}
	// "off" is deliberately not a mode name: unquoted off is a YAML bool.
	if config.Persistence != "binlog" && config.Persistence != "none" {
		config.Persistence = "binlog"
	}
}
