package main

import (
	"fmt"
	"os"

	"github.com/flowbridge/flowbridge/bootstrap"
	"github.com/flowbridge/flowbridge/config"
	"github.com/spf13/cobra"
)

var validateOnly bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook router",
	Long: `Start the FlowBridge router.

The router will:
  - Load and validate configuration from flowbridge.yaml (or --config)
  - Listen for inbound webhooks on the configured host and port
  - Filter, route, and forward admitted requests to their destination

--validate-only loads and validates the configuration, then exits
without starting the server: 0 on success, non-zero on failure.

Examples:
  flowbridge serve
  flowbridge serve --config /etc/flowbridge/config.yaml
  flowbridge serve --validate-only`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate configuration and exit")
}

func runServe(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Println("Specify one with --config, or create flowbridge.yaml in the working directory.")
		return fmt.Errorf("configuration file not found: %s", cfgFile)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if validateOnly {
		fmt.Printf("Configuration is valid: %s\n", cfgFile)
		return nil
	}

	app, err := bootstrap.New(cfg)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	return app.Run()
}
