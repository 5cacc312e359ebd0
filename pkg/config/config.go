package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LedgerConfig struct {
	NodeID int64 `mapstructure:"node_id"`
}

type ControlsConfig struct {
	DueOffsetDays int `mapstructure:"due_offset_days"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Controls ControlsConfig `mapstructure:"controls"`
}

// Load reads configuration from path (e.g. "config.yaml"). When path is empty it looks for
// config.yaml in the working directory; a missing file just leaves the defaults.
// Every key can be overridden from the environment, e.g. BACKOFFICE_SERVER_ADDR=:9000.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "backoffice.db")
	v.SetDefault("ledger.node_id", 1)
	v.SetDefault("controls.due_offset_days", 1)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
