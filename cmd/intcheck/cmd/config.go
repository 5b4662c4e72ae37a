package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/psantana5/intcheck/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults, the config file, INTCHECK_*
environment variables and flags have been applied, together with the value
every worker is expected to compute. Use -o json for JSON; YAML otherwise.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// EffectiveConfig is what config show prints
type EffectiveConfig struct {
	Config   *config.Config `json:"config" yaml:"config"`
	Expected int64          `json:"expected" yaml:"expected"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	view := EffectiveConfig{Config: cfg, Expected: cfg.Operands.Expected()}
	out := cmd.OutOrStdout()

	if IsJSONOutput() {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(view)
}
