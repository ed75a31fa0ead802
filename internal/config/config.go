package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Master   MasterConfig   `mapstructure:"master"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Plugins  []PluginConfig `mapstructure:"plugins"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig `mapstructure:"postgres"`
	Redis         RedisConfig    `mapstructure:"redis"`
	RunMigrations bool           `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MasterConfig guards the administrative API.
type MasterConfig struct {
	Key        string   `mapstructure:"key"`
	AllowCIDRs []string `mapstructure:"allow_cidrs"`
}

type DispatchConfig struct {
	Workers     int           `mapstructure:"workers"`
	QueueDepth  int           `mapstructure:"queue_depth"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// LimitsConfig controls the per-address rate limiter. Per-address quotas
// themselves (lim_count / lim_size) live on the addr records; this only
// configures the shared machinery.
type LimitsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Period          time.Duration `mapstructure:"period"`
	ReserveFraction float64       `mapstructure:"reserve_fraction"`
	OnStoreError    string        `mapstructure:"on_store_error"`
}

// AuditConfig enables the optional Kafka delivery-audit trail. Empty broker
// list disables it.
type AuditConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// PluginConfig carries global (not per-endpoint) plugin settings, e.g. the
// SMTP relay for email or the bot token for telegram.
type PluginConfig struct {
	Name   string                 `mapstructure:"name"`
	Config map[string]interface{} `mapstructure:"config"`
}

type AdminConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
