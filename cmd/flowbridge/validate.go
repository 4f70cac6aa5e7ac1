package main

import (
	"fmt"
	"os"

	"github.com/flowbridge/flowbridge/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the FlowBridge configuration file.

Checks:
  - YAML syntax and strict schema (no unknown keys)
  - general, server, filtering, and routes sections are all present
  - every rule and route field path, operator, and destination URL

Examples:
  flowbridge validate
  flowbridge validate --config /etc/flowbridge/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax and schema valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax and schema valid\n", checkMark)

	fmt.Printf("  %s Server: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  %s Default action: %s\n", checkMark, cfg.Filtering.DefaultAction)
	fmt.Printf("  %s Filtering rules: %d\n", checkMark, len(cfg.Filtering.Conditions.Rules))
	fmt.Printf("  %s Route mappings: %d\n", checkMark, len(cfg.Routes))

	fmt.Println()
	fmt.Println("Configuration is valid.")
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
