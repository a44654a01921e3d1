package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/service/daemon"
	"github.com/safenetai/escalation/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the escalation daemon.
	rootCmd = &cobra.Command{
		Use:   "escalationd [listen-address]",
		Short: "Run the emergency escalation daemon.",
		Long: `Starts the escalation daemon that turns panic-button bursts and sensor
telemetry into alert records and notifications.

The daemon serves the ingest HTTP API on the configured listen address.
A listen address argument overrides the configuration (e.g., :9090,
0.0.0.0:8480). Postgres is required; Redis and MQTT are optional and add
cross-restart dispatch dedup and the countdown broadcast respectively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the escalationd CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
