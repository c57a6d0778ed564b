package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dwoolworth/mgosh/internal/cliconfig"
)

var (
	configShow     bool
	configValidate bool
)

// configCmd implements `mgosh config [--show] [--validate]` (spec.md §6).
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or validate the mgosh configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShow, "show", false, "print the fully resolved configuration")
	configCmd.Flags().BoolVar(&configValidate, "validate", false, "validate the config file and report the first structural error")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configValidate {
		if flagConfig == "" {
			return fmt.Errorf("config --validate requires --config <path>")
		}
		verr, err := cliconfig.Validate(flagConfig)
		if err != nil {
			return err
		}
		if verr != nil {
			fmt.Printf("Invalid configuration: %s\n", verr.String())
			return fmt.Errorf("config validation failed")
		}
		fmt.Println("Configuration is valid.")
		return nil
	}

	cfg, err := cliconfig.Load(flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	if configShow || (!configShow && !configValidate) {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	}
	return nil
}
