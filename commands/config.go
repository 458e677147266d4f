package commands

import (
	"fmt"

	"github.com/penwyp/go-colony-monitor/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Prints the configuration after defaults, config file, COLONY_* environment
variables and flags are applied. The output is a valid config file.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if cfg.File != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# from %s\n", cfg.File)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
