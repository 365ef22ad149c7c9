package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zMarques/albion-network/internal/daemon"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sniffer in foreground",
	Long: `Run the albion-network daemon in foreground.

The daemon will:
  1. Load global configuration from config file
  2. Initialize logging and metrics
  3. Write the PID file (if configured)
  4. Start one capture worker per interface and the decode pump
  5. Report every decoded message on stdout
  6. Handle signals for graceful shutdown (SIGTERM, SIGINT) and reload (SIGHUP)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func runDaemon() error {
	// Create daemon instance
	d, err := daemon.New(configFile, pidFile)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Start all components
	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Run main loop (blocks until shutdown)
	return d.Run()
}
