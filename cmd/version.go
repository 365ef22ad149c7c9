package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zMarques/albion-network/internal/capture/source"
	"github.com/zMarques/albion-network/internal/daemon"
	"github.com/zMarques/albion-network/pkg/decoder"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runVersion(cmd.OutOrStdout())
	},
}

func runVersion(out io.Writer) {
	fmt.Fprintf(out, "albion-network %s\n", daemon.Version)
	fmt.Fprintf(out, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "  sources:  %s (default %s)\n", strings.Join(source.Names(), ", "), source.Default)
	fmt.Fprintf(out, "  decoders: %s\n", strings.Join(decoder.Names(), ", "))
}
