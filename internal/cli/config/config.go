// Package config loads the optional ccppdoc.yaml tool configuration. The file
// supplies defaults for flags the commands accept; flags always win.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the ccppdoc tool configuration
type Config struct {
	// Output is the default fragment output directory
	Output string `mapstructure:"output"`

	// Formats lists the default fragment formats (html, markdown)
	Formats []string `mapstructure:"formats"`

	// Title labels generated index pages
	Title string `mapstructure:"title"`

	// SchemePaths are directories searched for .meta files when validate is
	// run without arguments
	SchemePaths []string `mapstructure:"scheme_paths"`

	Serve ServeConfig `mapstructure:"serve"`
}

// ServeConfig configures the preview server
type ServeConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Load loads the configuration from ccppdoc.yml or ccppdoc.yaml in the current
// directory or the nearest ancestor holding one. A missing file is not an
// error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("output", "docs/metadata")
	v.SetDefault("formats", []string{"html"})
	v.SetDefault("title", "Scheme Metadata")
	v.SetDefault("scheme_paths", []string{"."})
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.host", "localhost")

	v.SetConfigName("ccppdoc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if root, err := GetProjectRoot(); err == nil {
		v.AddConfigPath(root)
	}

	v.SetEnvPrefix("CCPPDOC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetProjectRoot finds the nearest ancestor directory holding a ccppdoc
// config file.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "ccppdoc.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "ccppdoc.yaml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no ccppdoc.yml found in this directory or any parent")
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Serve.Port < 0 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be in 0-65535, got: %d", cfg.Serve.Port)
	}
	for _, f := range cfg.Formats {
		if f != "html" && f != "markdown" {
			return fmt.Errorf("unknown format in config: %s", f)
		}
	}
	return nil
}
