package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Error from the last configuration load, reported before any command runs.
	configErr error
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "qrscan",
	Short: "Extract QR codes from documents and images",
	Long: `qrscan finds QR codes embedded in documents and reports their contents.

Supported inputs:
- Office documents (docx, xlsx, pptx and other zip based containers)
- PDF files, including password protected ones
- Raster images (PNG, JPEG, GIF, BMP, TIFF, WebP)

Every decoded symbol yields its raw data, geometry, and any URIs or email
addresses found in the payload. Oversized or binary payloads are written as
event attachments.

Examples:
  qrscan analyze invoice.docx
  qrscan analyze scan.pdf --format json
  qrscan analyze photo.png --file-format image/png
  qrscan serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/qrscan, /etc/qrscan)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	bindFlags(rootCmd.PersistentFlags(), []flagBinding{
		{"verbose", "verbose"},
		{"log_level", "log-level"},
	})

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if globalConfig == nil && configErr == nil {
			initConfig()
		}
		if configErr != nil {
			return fmt.Errorf("error loading configuration: %w", configErr)
		}

		// Logs go to stderr so structured output on stdout stays parseable.
		setupLogging(cmd.ErrOrStderr(), globalConfig)
		return nil
	}
}

// setupLogging installs the default JSON logger at the configured level.
func setupLogging(w io.Writer, cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel(cfg),
	})))
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	if cfgFile != "" {
		globalConfig, configErr = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, configErr = configLoader.Load()
	}
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
		if configErr != nil {
			defaults := config.DefaultConfig()
			return &defaults
		}
	}

	// Reload configuration to ensure CLI flags are included
	// This is necessary because flag binding happens after initial config loading
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}

	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// flagBinding maps a viper configuration key to a command line flag.
type flagBinding struct {
	key  string
	flag string
}

// bindFlags binds flags to viper configuration keys.
func bindFlags(fs *pflag.FlagSet, bindings []flagBinding) {
	for _, b := range bindings {
		if err := viper.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", b.flag, err))
		}
	}
}
