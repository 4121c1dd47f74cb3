package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/phuslu/log"
)

// Config holds the settings of the paramnodes command.
type Config struct {
	// BasePath is the directory relative image paths resolve against,
	// normally the host's installation directory.
	BasePath   string `toml:"base_path" validate:"required"`
	LogLevel   string `toml:"log_level" validate:"required,oneof=debug info warn error"`
	OutputPath string `toml:"output_path"`
}

func Defaults() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Config{
		BasePath: wd,
		LogLevel: "info",
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(c)
}

// Load reads the TOML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", absPath, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return c, nil
}

// ApplyLogLevel sets the level of the global logger.
func (c *Config) ApplyLogLevel() {
	log.DefaultLogger.SetLevel(log.ParseLevel(c.LogLevel))
}
