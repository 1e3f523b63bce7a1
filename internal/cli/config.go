// ABOUTME: Viper-backed CLI configuration
// ABOUTME: Defaults, optional YAML file, INFPARQUET_* environment overrides

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// GenerateConfig controls metadata generation.
type GenerateConfig struct {
	Workers               int      `mapstructure:"workers"`
	MaxHighFreqStrings    int      `mapstructure:"max_high_freq_strings"`
	MaxSpecialStrings     int      `mapstructure:"max_special_strings"`
	MaxHighFreqCategories int      `mapstructure:"max_high_freq_categories"`
	TimestampColumns      []string `mapstructure:"timestamp_columns"`
	CategoricalColumns    []string `mapstructure:"categorical_columns"`
}

// ArchiveConfig controls artifact compression.
type ArchiveConfig struct {
	Codec string `mapstructure:"codec"`
}

// ServerConfig controls the inspection server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// PredicateConfig is one custom-metadata predicate from the config file.
type PredicateConfig struct {
	Name  string `mapstructure:"name"`
	Query string `mapstructure:"query"`
}

// Config is the layered CLI configuration.
type Config struct {
	Log        LogConfig         `mapstructure:"log"`
	Generate   GenerateConfig    `mapstructure:"generate"`
	Archive    ArchiveConfig     `mapstructure:"archive"`
	Server     ServerConfig      `mapstructure:"server"`
	Predicates []PredicateConfig `mapstructure:"predicates"`
}

// LoadConfig loads configuration from defaults, an optional YAML file,
// and INFPARQUET_* environment variables, in rising precedence. An
// explicit path must exist; the default infparquet.yaml may be absent.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("generate.workers", 0)
	v.SetDefault("generate.max_high_freq_strings", 10)
	v.SetDefault("generate.max_special_strings", 20)
	v.SetDefault("generate.max_high_freq_categories", 20)
	v.SetDefault("archive.codec", "zstd")
	v.SetDefault("server.addr", ":8080")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("infparquet")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix("INFPARQUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
