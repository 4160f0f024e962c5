// Package config loads engine settings from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Network   NetworkConfig   `mapstructure:"network"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type DownloadsConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	AudioFormat  string `mapstructure:"audio_format"`
	AudioQuality string `mapstructure:"audio_quality"`
}

type MetadataConfig struct {
	Fetch     bool   `mapstructure:"fetch"`
	UserAgent string `mapstructure:"user_agent"`
}

type FilterConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type NetworkConfig struct {
	MaxDownloads int `mapstructure:"max_downloads"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Default() *Config {
	return &Config{
		Downloads: DownloadsConfig{
			BaseDir:      filepath.Join(xdg.UserDirs.Music, "Downloaded"),
			AudioFormat:  "mp3",
			AudioQuality: "192K",
		},
		Metadata: MetadataConfig{
			Fetch:     true,
			UserAgent: "tunegrab/1.0 (https://github.com/tunegrab/tunegrab)",
		},
		Filter:  FilterConfig{Enabled: true},
		Network: NetworkConfig{MaxDownloads: 3},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from the given file, falling back to the
// standard locations and finally to defaults. Environment variables
// prefixed TUNEGRAB_ override file values.
func Load(path string) (*Config, error) {
	config := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, "tunegrab"))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TUNEGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	config.Downloads.BaseDir = expandPath(config.Downloads.BaseDir)
	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

func validate(config *Config) error {
	if config.Downloads.BaseDir == "" {
		return fmt.Errorf("downloads base directory not configured")
	}
	if config.Downloads.AudioFormat == "" {
		return fmt.Errorf("audio format not configured")
	}
	if config.Network.MaxDownloads < 1 {
		return fmt.Errorf("max downloads must be at least 1")
	}
	return nil
}

// NewLogger builds the process logger at the configured level.
func NewLogger(config *Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
