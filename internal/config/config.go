// Package config loads the server configuration from an optional YAML
// file, with environment variables overriding file values.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Agent    AgentConfig    `yaml:"agent"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
	BodyLimit    string   `yaml:"body_limit"`
}

type DataConfig struct {
	Dir    string `yaml:"dir"`
	DBFile string `yaml:"db_file"`
}

type AgentConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type SnapshotConfig struct {
	Schedule string `yaml:"schedule"`
	Keep     int    `yaml:"keep"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"*"},
			BodyLimit:    "16M",
		},
		Data: DataConfig{
			Dir:    "data",
			DBFile: "data/fiona.db",
		},
		Agent: AgentConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Snapshot: SnapshotConfig{
			Schedule: "@every 5m",
			Keep:     20,
		},
	}
}

// Load reads the config file at path (missing file is fine) and applies
// FIONA_* environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "FIONA_ADDR")
	setString(&cfg.Server.BodyLimit, "FIONA_BODY_LIMIT")
	setString(&cfg.Data.Dir, "FIONA_DATA_DIR")
	setString(&cfg.Data.DBFile, "FIONA_DB_FILE")
	setString(&cfg.Agent.BaseURL, "FIONA_AGENT_BASE_URL")
	setString(&cfg.Agent.APIKey, "FIONA_AGENT_API_KEY")
	setString(&cfg.Agent.Model, "FIONA_AGENT_MODEL")
	setString(&cfg.Snapshot.Schedule, "FIONA_SNAPSHOT_SCHEDULE")
	setInt(&cfg.Snapshot.Keep, "FIONA_SNAPSHOT_KEEP")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
