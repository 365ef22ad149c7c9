package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload configuration",
	Long: `Send SIGHUP to the running daemon. Log settings are applied immediately;
capture, queue, decoder, reporter and metrics changes need a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, err := newController()
		if err != nil {
			return err
		}
		return runReload(ctrl, cmd.OutOrStdout())
	},
}

// runReload 提取的业务逻辑，方便测试
func runReload(ctrl Controller, out io.Writer) error {
	if err := ctrl.Reload(); err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	fmt.Fprintln(out, "✓ Reload signal sent")
	return nil
}
