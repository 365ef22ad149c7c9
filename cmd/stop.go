package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var stopTimeout time.Duration

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Long: `Stop the albion-network daemon gracefully.

This command sends SIGTERM to the process recorded in the PID file and waits
for it to exit. The daemon stops its capture workers, drains the decode
pump and removes the PID file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}
		return runStop(ctrl, stopTimeout, cmd.OutOrStdout())
	},
}

func init() {
	stopCmd.Flags().DurationVarP(&stopTimeout, "timeout", "t", 10*time.Second,
		"how long to wait for the daemon to exit")
}

// runStop 提取的业务逻辑，方便测试
func runStop(ctrl Controller, timeout time.Duration, out io.Writer) error {
	if err := ctrl.Stop(timeout); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")
	return nil
}
