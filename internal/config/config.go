package config

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/qrscan/internal/extract"
	"github.com/MeKo-Tech/qrscan/internal/pdf"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	opts := extract.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Extract: ExtractConfig{
			MaxValueLength:    opts.MaxValueLength,
			AbortOnImageError: opts.AbortOnImageError,
			MaxImageDimension: opts.MaxImageDimension,
			TryHarder:         opts.TryHarder,
		},
		Batch: BatchConfig{
			GuessFormat: true,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// ValidOutputFormats lists the accepted values of output.format.
var ValidOutputFormats = []string{"text", "json", "yaml"}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	// Validate output format
	if c.Output.Format != "" && !contains(ValidOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(ValidOutputFormats, ", "))
	}

	// Truncated values need room for the "..." marker
	if err := ValidateMaxValueLength(c.Extract.MaxValueLength); err != nil {
		return err
	}
	if c.Extract.MaxImageDimension < 0 {
		return fmt.Errorf("invalid max image dimension: %d (must not be negative)", c.Extract.MaxImageDimension)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d (must not be negative)", c.Batch.Workers)
	}

	// Validate positive integers
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	return nil
}

// ValidateMaxValueLength checks a max_value_length setting.
func ValidateMaxValueLength(n int) error {
	if n <= 3 {
		return fmt.Errorf("invalid max value length: %d (must be greater than 3)", n)
	}
	return nil
}

// ToExtractOptions converts the config to the extraction engine options.
func (c *Config) ToExtractOptions() extract.Options {
	opts := extract.Options{
		MaxValueLength:    c.Extract.MaxValueLength,
		AbortOnImageError: c.Extract.AbortOnImageError,
		MaxImageDimension: c.Extract.MaxImageDimension,
		TryHarder:         c.Extract.TryHarder,
	}
	if c.Extract.PDFPassword != "" {
		opts.PDFCredentials = &pdf.PasswordCredentials{UserPassword: c.Extract.PDFPassword}
	}
	return opts
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
