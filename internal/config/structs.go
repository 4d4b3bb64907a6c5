//nolint:lll
package config

// Config represents the complete configuration for the qrscan application.
// It includes settings for all commands (analyze, batch, serve) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Extraction configuration
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract" json:"extract"`

	// Batch configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// ExtractConfig contains QR extraction settings.
type ExtractConfig struct {
	MaxValueLength    int    `mapstructure:"max_value_length" yaml:"max_value_length" json:"max_value_length"`
	AbortOnImageError bool   `mapstructure:"abort_on_image_error" yaml:"abort_on_image_error" json:"abort_on_image_error"`
	MaxImageDimension int    `mapstructure:"max_image_dimension" yaml:"max_image_dimension" json:"max_image_dimension"`
	TryHarder         bool   `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	PDFPassword       string `mapstructure:"pdf_password" yaml:"pdf_password" json:"-"`
}

// BatchConfig contains settings for the batch command.
type BatchConfig struct {
	// Workers is the number of documents analyzed concurrently; 0 uses all CPUs.
	Workers     int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	GuessFormat bool `mapstructure:"guess_format" yaml:"guess_format" json:"guess_format"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	File      string `mapstructure:"file" yaml:"file" json:"file"`
	EventsDir string `mapstructure:"events_dir" yaml:"events_dir" json:"events_dir"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}
