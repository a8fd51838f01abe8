package app

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

type GSheetConfig struct {
	SheetID         string `toml:"sheet_id"`
	SheetName       string `toml:"sheet_name"`
	TeamsRange      string `toml:"teams_range"`
	ScoresColumn    string `toml:"scores_column"`
	TimestampRange  string `toml:"timestamp_range"`
	CredentialsPath string `toml:"credentials_path"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL           string `toml:"redis_url"`
		TokenHeader        string `toml:"token_header"`
		SessionKeyTemplate string `toml:"session_key_template"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Realtime struct {
		RedisURL        string   `toml:"redis_url"`
		Channels        []string `toml:"channels"`
		DebounceSeconds int      `toml:"debounce_seconds"`
		RefreshSeconds  int      `toml:"refresh_seconds"`
	} `toml:"realtime"`

	Draw struct {
		DefaultMatchSize int            `toml:"default_match_size"`
		MatchSizes       map[string]int `toml:"match_sizes"`
	} `toml:"draw"`

	Display struct {
		TimestampFormat string `toml:"timestamp_format"`
	} `toml:"display"`

	GSheet map[string]GSheetConfig `toml:"gsheet"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("server port is not specified in config, use a value like :9999")
	}
	if config.Draw.DefaultMatchSize == 0 {
		config.Draw.DefaultMatchSize = 2
	}

	logger.Debug.Printf("Loaded draw config: %+v", config.Draw)

	return &config, nil
}

// Debounce returns the coordinator debounce window.
func (c *Config) Debounce() time.Duration {
	if c.Realtime.DebounceSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Realtime.DebounceSeconds) * time.Second
}

// RefreshEvery returns the periodic full-refresh interval.
func (c *Config) RefreshEvery() time.Duration {
	if c.Realtime.RefreshSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Realtime.RefreshSeconds) * time.Second
}
