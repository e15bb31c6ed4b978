package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const defaultSAMMIPort = 9450

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SAMMIHost      string        `mapstructure:"sammi_host"`
	SAMMIPort      int           `mapstructure:"-"`
	SAMMIPassword  string        `mapstructure:"sammi_password"`
	TimeoutSeconds int64         `mapstructure:"sammi_timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`

	RequestsFile          string        `mapstructure:"requests_file"`
	PublishersFile        string        `mapstructure:"publishers_file"`
	ReplayIntervalSeconds int64         `mapstructure:"replay_interval"`
	ReplayInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "sammictl")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sammi_host", "localhost")
	v.SetDefault("sammi_port", defaultSAMMIPort)
	v.SetDefault("sammi_password", "")
	v.SetDefault("sammi_timeout_seconds", 0)
	v.SetDefault("requests_file", "./configs/requests.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("replay_interval", 0) // seconds, 0 runs once
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/journal.db")
	v.SetDefault("storage_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SAMMIPort = ParsePort(v.Get("sammi_port"))
	cfg.SAMMIHost = strings.TrimSpace(cfg.SAMMIHost)

	if cfg.TimeoutSeconds < 0 {
		return nil, fmt.Errorf("invalid sammi_timeout_seconds (must not be negative)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.ReplayIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid replay_interval (must not be negative)")
	}
	cfg.ReplayInterval = time.Duration(cfg.ReplayIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// ParsePort coerces a loosely typed port value. Anything that is not a whole
// number in [1, 65535] yields the default SAMMI port.
func ParsePort(raw any) int {
	switch v := raw.(type) {
	case nil, bool:
		return defaultSAMMIPort
	case float64:
		if v != math.Trunc(v) {
			return defaultSAMMIPort
		}
	case string:
		raw = strings.TrimSpace(v)
	}
	port, err := cast.ToIntE(raw)
	if err != nil || port < 1 || port > 65535 {
		return defaultSAMMIPort
	}
	return port
}
