// Package config handles the global configuration file and runtime settings.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"gopkg.in/yaml.v3"

	"github.com/dotsian/dexscript/internal/model"
	"github.com/dotsian/dexscript/internal/store"
)

// GlobalConfig represents configuration stored in ~/.config/dexscript/config.yml.
type GlobalConfig struct {
	DataDir   string        `yaml:"data_dir,omitempty"`
	UploadDir string        `yaml:"upload_dir,omitempty"`
	Listen    string        `yaml:"listen,omitempty"`
	Token     string        `yaml:"token,omitempty"`   // bearer token required by the HTTP API
	Origins   []string      `yaml:"origins,omitempty"` // browser origins allowed to call the HTTP API
	Settings  *Settings     `yaml:"settings,omitempty"`
	Models    []ModelConfig `yaml:"models,omitempty"`
}

// ModelConfig registers an extra entity kind from a JSON schema file.
type ModelConfig struct {
	Name       string `yaml:"name"`
	Schema     string `yaml:"schema"` // relative paths resolve against the config directory
	Identifier string `yaml:"identifier"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "dexscript"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
	// DBFile is the database file name inside the data directory.
	DBFile = "dex.db"

	DefaultDataDir   = "data"
	DefaultUploadDir = "static/uploads"
	DefaultListen    = "127.0.0.1:8080"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/dexscript/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns a default config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &GlobalConfig{}

	path := GlobalConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	globalConfigCache = cfg
	return cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

func (c *GlobalConfig) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.UploadDir == "" {
		c.UploadDir = DefaultUploadDir
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Settings == nil {
		s := DefaultSettings()
		c.Settings = &s
	}
	c.DataDir = ExpandTilde(c.DataDir)
	c.UploadDir = ExpandTilde(c.UploadDir)
}

// ApplyEnv overrides file values with DEX_DATA_DIR, DEX_UPLOAD_DIR,
// DEX_LISTEN and DEX_TOKEN when they are set.
func (c *GlobalConfig) ApplyEnv(ctx context.Context) {
	c.DataDir = env.GetVariableOrDefault(ctx, "DEX_DATA_DIR", c.DataDir)
	c.UploadDir = env.GetVariableOrDefault(ctx, "DEX_UPLOAD_DIR", c.UploadDir)
	c.Listen = env.GetVariableOrDefault(ctx, "DEX_LISTEN", c.Listen)
	c.Token = env.GetVariableOrDefault(ctx, "DEX_TOKEN", c.Token)
}

// DBPath returns the path of the entity database.
func (c *GlobalConfig) DBPath() string {
	return filepath.Join(c.DataDir, DBFile)
}

// Save writes the config back to GlobalConfigPath and refreshes the cache.
func (c *GlobalConfig) Save() error {
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	globalConfigCache = c
	return nil
}

// RegisterModels adds the configured extra models to r.
func (c *GlobalConfig) RegisterModels(r *model.Registry) error {
	for _, m := range c.Models {
		path := ExpandTilde(m.Schema)
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(GlobalConfigPath()), path)
		}

		schema, err := store.ParseSchema(path)
		if err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
		if err := r.Register(m.Name, schema, m.Identifier); err != nil {
			return err
		}
	}
	return nil
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
