// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zMarques/albion-network/internal/daemon"
)

var (
	// Global flags
	configFile string
	pidFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "albion-network",
	Short: "albion-network - passive Albion Online traffic sniffer",
	Long: `albion-network passively observes the game's UDP traffic (port 5056) on every
non-loopback interface of the host and hands each payload to a stream decoder.

Features:
  - One capture worker per interface (AF_PACKET ring on Linux, libpcap elsewhere)
  - Kernel BPF prefilter for the game port
  - Bounded fan-in queue with block / drop-tail / drop-head policies
  - Structured message reporting, Prometheus metrics, SIGHUP log reload`,
	Version:       daemon.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (empty: defaults and ALBION_NETWORK_* env vars)")
	rootCmd.PersistentFlags().StringVarP(&pidFile, "pidfile", "p", "",
		"PID file path (overrides control.pid_file)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
