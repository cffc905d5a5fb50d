package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from disk rather
// than through the viper singleton. The server's config watcher uses it to
// pick up edits at runtime without re-running full initialization.
type LocalConfig struct {
	DB       string `yaml:"db"`
	Org      string `yaml:"org"`
	Actor    string `yaml:"actor"`
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log-level"`
}

// LoadLocalConfig reads and parses config.yaml from the given .shiftcrew
// directory. Returns an empty LocalConfig (not nil) if the file is missing
// or unparseable.
func LoadLocalConfig(configDir string) *LocalConfig {
	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// LoadLocalConfigWithEnv reads config.yaml and applies environment variable
// overrides, which take precedence over file values.
func LoadLocalConfigWithEnv(configDir string) *LocalConfig {
	cfg := LoadLocalConfig(configDir)

	if db := os.Getenv("SHIFTCREW_DB"); db != "" {
		cfg.DB = db
	}
	if org := os.Getenv("SHIFTCREW_ORG"); org != "" {
		cfg.Org = org
	}
	if actor := os.Getenv("SHIFTCREW_ACTOR"); actor != "" {
		cfg.Actor = actor
	}
	if listen := os.Getenv("SHIFTCREW_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	return cfg
}

// FindConfigDir walks up from the working directory to the nearest
// .shiftcrew directory.
func FindConfigDir() (string, error) {
	path, err := findProjectConfigYaml()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}
