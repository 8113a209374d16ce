package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvDevelopment is the env value under which DevBaseURL applies.
const EnvDevelopment = "development"

// ClientConfig configures dropctl and anything else embedding the client
// packages.
type ClientConfig struct {
	Env        string    `mapstructure:"env"`
	BaseURL    string    `mapstructure:"base_url"`
	DevBaseURL string    `mapstructure:"dev_base_url"`
	APIKey     string    `mapstructure:"api_key"`
	StorePath  string    `mapstructure:"store_path"`
	Metric     bool      `mapstructure:"metric"`
	Log        LogConfig `mapstructure:"log"`
}

// ResolveBaseURL picks the API base URL: the dev URL only in development and
// only when set, otherwise the production URL, which may be "".
func (c ClientConfig) ResolveBaseURL() string {
	if c.Env == EnvDevelopment && c.DevBaseURL != "" {
		return c.DevBaseURL
	}
	return c.BaseURL
}

// LoadClient reads client configuration from an optional dropctl.yaml and
// DROPSPOTS_ environment variables. configFile overrides the search path.
func LoadClient(configFile string) (*ClientConfig, error) {
	v := viper.New()

	v.SetDefault("env", "production")
	v.SetDefault("base_url", "")
	v.SetDefault("dev_base_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("store_path", defaultStorePath())
	v.SetDefault("metric", true)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("dropctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "dropspots"))
		}
		_ = v.ReadInConfig() // OK if missing
	}

	v.SetEnvPrefix("DROPSPOTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.StorePath == "" {
		return nil, fmt.Errorf("config validation failed:\n  - store_path is required")
	}
	return &cfg, nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".dropspots-session.json"
	}
	return filepath.Join(dir, "dropspots", "session.json")
}
