// internal/config/config.go
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the scheduler service.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	DatabaseDriver  string `mapstructure:"database_driver"`
	DatabaseDSN     string `mapstructure:"database_dsn"`
	HttpListenAddr  string `mapstructure:"http_listen_addr"`
	RetentionDays   int    `mapstructure:"retention_days"`
	StatsWindowDays int    `mapstructure:"stats_window_days"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_dsn", "cronwell.db")
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("retention_days", 30)
	viper.SetDefault("stats_window_days", 30)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults and env vars are enough.
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
