package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dataforge/dataforge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML after applying defaults,
the config file and DATAFORGE_* environment overrides. Secrets are redacted.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	redacted := *cfg
	if redacted.LLM.APIKey != "" {
		redacted.LLM.APIKey = "[redacted]"
	}
	if redacted.Store.AuthToken != "" {
		redacted.Store.AuthToken = "[redacted]"
	}

	data, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
