// internal/common/config/config.go
package config

import "time"

// Config is the main portal configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Review  ReviewConfig  `mapstructure:"review"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points at the external portal backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig selects where the persisted session lives. Backend is
// "file" (JSON files under StateDir) or "redis".
type SessionConfig struct {
	Backend  string      `mapstructure:"backend"`
	StateDir string      `mapstructure:"state_dir"`
	Redis    RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ReviewConfig tunes the admin review sweep.
type ReviewConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// Concurrency bounds how many automatic status transitions run at once
	// during a sweep.
	Concurrency int    `mapstructure:"concurrency"`
	AdminEmail  string `mapstructure:"admin_email"`
	AdminPass   string `mapstructure:"admin_password"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
