package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate configuration",
	Long: `Manage qrscan configuration files.

Configuration is read from qrscan.yaml in the search paths, QRSCAN_* environment
variables and command line flags, in increasing order of precedence.`,
}

var configInitCmd = &cobra.Command{
	Use:          "init [file]",
	Short:        "Write a configuration file with default values",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the resolved configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		if cfg.Extract.PDFPassword != "" {
			cfg.Extract.PDFPassword = "********"
		}
		b, err := yaml.Marshal(&cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", used); err != nil {
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the directories searched for configuration files",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range config.GetConfigSearchPaths() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathsCmd)
}
