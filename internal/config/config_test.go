package config

import (
	"strings"
	"testing"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig tests the default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Extract.MaxValueLength != 10000 {
		t.Errorf("Expected max value length 10000, got %d", cfg.Extract.MaxValueLength)
	}
	if cfg.Extract.AbortOnImageError {
		t.Error("Expected abort_on_image_error to default to false")
	}
	if !cfg.Extract.TryHarder {
		t.Error("Expected try_harder to default to true")
	}
	if cfg.Extract.MaxImageDimension != 4096 {
		t.Errorf("Expected max image dimension 4096, got %d", cfg.Extract.MaxImageDimension)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected output format 'text', got %s", cfg.Output.Format)
	}
	if !cfg.Batch.GuessFormat || cfg.Batch.Workers != 0 {
		t.Errorf("Expected batch guess_format=true workers=0, got %+v", cfg.Batch)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

// TestValidate tests configuration validation.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid default", func(*Config) {}, ""},
		{"debug level", func(c *Config) { c.LogLevel = debugLevel }, ""},
		{"invalid log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"yaml output", func(c *Config) { c.Output.Format = "yaml" }, ""},
		{"empty output format", func(c *Config) { c.Output.Format = "" }, ""},
		{"csv output", func(c *Config) { c.Output.Format = "csv" }, "invalid output format"},
		{"max value length 4", func(c *Config) { c.Extract.MaxValueLength = 4 }, ""},
		{"max value length 3", func(c *Config) { c.Extract.MaxValueLength = 3 }, "must be greater than 3"},
		{"max value length 0", func(c *Config) { c.Extract.MaxValueLength = 0 }, "invalid max value length"},
		{"batch workers 4", func(c *Config) { c.Batch.Workers = 4 }, ""},
		{"negative batch workers", func(c *Config) { c.Batch.Workers = -2 }, "invalid batch workers"},
		{"negative dimension", func(c *Config) { c.Extract.MaxImageDimension = -1 }, "invalid max image dimension"},
		{"zero dimension", func(c *Config) { c.Extract.MaxImageDimension = 0 }, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"upload zero", func(c *Config) { c.Server.MaxUploadMB = 0 }, "invalid max upload size"},
		{"timeout zero", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestToExtractOptions tests conversion to engine options.
func TestToExtractOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extract.MaxValueLength = 64
	cfg.Extract.AbortOnImageError = true
	cfg.Extract.MaxImageDimension = 1024
	cfg.Extract.TryHarder = false

	opts := cfg.ToExtractOptions()
	if opts.MaxValueLength != 64 {
		t.Errorf("Expected max value length 64, got %d", opts.MaxValueLength)
	}
	if !opts.AbortOnImageError {
		t.Error("Expected abort on image error")
	}
	if opts.MaxImageDimension != 1024 {
		t.Errorf("Expected max image dimension 1024, got %d", opts.MaxImageDimension)
	}
	if opts.TryHarder {
		t.Error("Expected try harder disabled")
	}
	if opts.PDFCredentials != nil {
		t.Error("Expected no PDF credentials without a password")
	}

	cfg.Extract.PDFPassword = "secret"
	opts = cfg.ToExtractOptions()
	if opts.PDFCredentials == nil || opts.PDFCredentials.UserPassword != "secret" {
		t.Errorf("Expected PDF user password to be set, got %+v", opts.PDFCredentials)
	}
}
