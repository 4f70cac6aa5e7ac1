package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "flowbridge",
	Short: "Content-aware HTTP webhook router",
	Long: `FlowBridge receives webhooks, filters them against configured
conditions, extracts a routing field, and forwards admitted requests to
the matching destination.

Quick start:
  flowbridge serve     # Start the router
  flowbridge validate  # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "flowbridge.yaml", "config file path")
}
