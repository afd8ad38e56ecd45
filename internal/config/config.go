package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Placeholder strategies for cost fields the user does not supply.
const (
	PlaceholderZero        = "zero"
	PlaceholderCountryMean = "country_mean"
)

// Global configuration structure.
type Global struct {
	DataPath   string `mapstructure:"data_path" yaml:"data_path"`
	BundlePath string `mapstructure:"bundle_path" yaml:"bundle_path"`

	// Prediction defaults
	PlaceholderStrategy string `mapstructure:"placeholder_strategy" yaml:"placeholder_strategy"`
	DefaultDuration     int    `mapstructure:"default_duration" yaml:"default_duration"`
	DefaultCluster      string `mapstructure:"default_cluster" yaml:"default_cluster"`

	// HTTP server
	ListenAddr         string `mapstructure:"listen_addr" yaml:"listen_addr"`
	GinMode            string `mapstructure:"gin_mode" yaml:"gin_mode"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.eduspend, the default home for config.yaml.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".eduspend"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.eduspend/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flag overrides are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("EDUSPEND")
	v.AutomaticEnv()

	v.SetDefault("data_path", "data_full.csv")
	v.SetDefault("bundle_path", "model_components.json")
	v.SetDefault("placeholder_strategy", PlaceholderZero)
	v.SetDefault("default_duration", 4)
	v.SetDefault("default_cluster", "KMeans_Cluster")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("shutdown_timeout_sec", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no command can work with.
func (c *Global) Validate() error {
	switch c.PlaceholderStrategy {
	case PlaceholderZero, PlaceholderCountryMean:
	default:
		return fmt.Errorf("invalid placeholder_strategy: %q (use %s or %s)", c.PlaceholderStrategy, PlaceholderZero, PlaceholderCountryMean)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (use text or json)", c.LogFormat)
	}
	switch c.GinMode {
	case "", gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("invalid gin_mode: %q (use debug, release or test)", c.GinMode)
	}
	if c.ShutdownTimeoutSec < 0 {
		return fmt.Errorf("invalid shutdown_timeout_sec: %d", c.ShutdownTimeoutSec)
	}
	return nil
}
