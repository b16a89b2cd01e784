package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leapexpr/internal/metadata"
	"github.com/leapstack-labs/leapexpr/pkg/core"
	"github.com/leapstack-labs/leapexpr/pkg/i18n"
)

var outputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.ExpressionMode(); err != nil {
		return err
	}
	if c.Engine != "" {
		if _, err := metadata.EngineFeatures(c.Engine); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
	if c.DSN != "" && c.Engine == "" {
		return fmt.Errorf("dsn requires an engine")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := i18n.Parse(c.Language); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	if c.OutputFormat != "" && !contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want one of %v)", c.OutputFormat, outputModes)
	}
	return nil
}

// ExpressionMode returns the configured mode.
func (c *Config) ExpressionMode() (core.ExpressionMode, error) {
	return core.ParseExpressionMode(c.Mode)
}

// ValidateMetadata checks that a configured metadata file exists.
func (c *Config) ValidateMetadata() error {
	if c.MetadataFile == "" {
		return nil
	}
	if _, err := os.Stat(c.MetadataFile); os.IsNotExist(err) {
		return fmt.Errorf("metadata file does not exist: %s\nHint: Create the file or use --metadata-file to specify a different path", c.MetadataFile)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
