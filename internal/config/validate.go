package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIntake(); err != nil {
		return err
	}
	if err := c.validateSypht(); err != nil {
		return err
	}
	if err := c.validateABR(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if filepath.Clean(c.Paths.InputDir) == filepath.Clean(c.Paths.OutputDir) {
		return errors.New("paths.output_dir must differ from paths.input_dir")
	}
	return nil
}

func (c *Config) validateIntake() error {
	if len(c.Intake.Extensions) == 0 {
		return errors.New("intake.extensions must include at least one extension")
	}
	if c.Intake.QueueCapacity < 1 {
		return errors.New("intake.queue_capacity must be positive")
	}
	return nil
}

func (c *Config) validateSypht() error {
	if c.Sypht.ClientID == "" || c.Sypht.ClientSecret == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/autoname/config.toml"
		}
		return fmt.Errorf("sypht.client_id and sypht.client_secret are required. Set SYPHT_CLIENT_ID/SYPHT_CLIENT_SECRET or edit %s (create with 'autoname config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateABR() error {
	if c.ABR.GUID == "" {
		return errors.New("abr.guid is required (or set ABR_GUID)")
	}
	if c.ABR.RequestsPerSecond < 0 {
		return errors.New("abr.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
