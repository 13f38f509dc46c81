package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIntake()
	c.normalizeSypht()
	c.normalizeABR()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(strings.TrimSpace(c.Paths.InputDir)); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIntake() {
	exts := make([]string, 0, len(c.Intake.Extensions))
	seen := make(map[string]struct{}, len(c.Intake.Extensions))
	for _, ext := range c.Intake.Extensions {
		normalized := NormalizeExt(ext)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Intake.Extensions = exts
	if c.Intake.QueueCapacity == 0 {
		c.Intake.QueueCapacity = defaultQueueCapacity
	}
}

func (c *Config) normalizeSypht() {
	c.Sypht.ClientID = strings.TrimSpace(c.Sypht.ClientID)
	if c.Sypht.ClientID == "" {
		if value, ok := os.LookupEnv("SYPHT_CLIENT_ID"); ok {
			c.Sypht.ClientID = strings.TrimSpace(value)
		}
	}
	c.Sypht.ClientSecret = strings.TrimSpace(c.Sypht.ClientSecret)
	if c.Sypht.ClientSecret == "" {
		if value, ok := os.LookupEnv("SYPHT_CLIENT_SECRET"); ok {
			c.Sypht.ClientSecret = strings.TrimSpace(value)
		}
	}
	c.Sypht.BaseURL = strings.TrimRight(strings.TrimSpace(c.Sypht.BaseURL), "/")
	if c.Sypht.BaseURL == "" {
		c.Sypht.BaseURL = defaultSyphtBaseURL
	}
	c.Sypht.AuthURL = strings.TrimRight(strings.TrimSpace(c.Sypht.AuthURL), "/")
	if c.Sypht.AuthURL == "" {
		c.Sypht.AuthURL = defaultSyphtAuthURL
	}
	c.Sypht.Audience = strings.TrimSpace(c.Sypht.Audience)
	if c.Sypht.Audience == "" {
		c.Sypht.Audience = defaultSyphtAudience
	}
	fieldSets := make([]string, 0, len(c.Sypht.FieldSets))
	for _, fs := range c.Sypht.FieldSets {
		if trimmed := strings.TrimSpace(fs); trimmed != "" {
			fieldSets = append(fieldSets, trimmed)
		}
	}
	if len(fieldSets) == 0 {
		fieldSets = []string{defaultSyphtFieldSet}
	}
	c.Sypht.FieldSets = fieldSets
	if c.Sypht.TimeoutSeconds < 0 {
		c.Sypht.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeABR() {
	c.ABR.GUID = strings.TrimSpace(c.ABR.GUID)
	if c.ABR.GUID == "" {
		if value, ok := os.LookupEnv("ABR_GUID"); ok {
			c.ABR.GUID = strings.TrimSpace(value)
		}
	}
	c.ABR.BaseURL = strings.TrimRight(strings.TrimSpace(c.ABR.BaseURL), "/")
	if c.ABR.BaseURL == "" {
		c.ABR.BaseURL = defaultABRBaseURL
	}
	if c.ABR.TimeoutSeconds < 0 {
		c.ABR.TimeoutSeconds = 0
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) == "" {
		return nil
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
