package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zMarques/albion-network/internal/config"
	"github.com/zMarques/albion-network/internal/netif"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List host interfaces and whether they are captured",
	Long: `List every network interface of the host. The CAPTURE column shows whether
the sniffer would start a worker on it, honouring capture.include and
capture.exclude, or why it would not.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ifaces, err := netif.All()
		if err != nil {
			return err
		}
		opts := netif.Options{Include: cfg.Capture.Include, Exclude: cfg.Capture.Exclude}
		return runInterfaces(ifaces, opts, cmd.OutOrStdout())
	},
}

func runInterfaces(ifaces []netif.Interface, opts netif.Options, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINDEX\tMTU\tMAC\tUP\tCAPTURE")
	for _, iface := range ifaces {
		mac := iface.HardwareAddr.String()
		if mac == "" {
			mac = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%t\t%s\n",
			iface.Name, iface.Index, iface.MTU, mac, iface.Up, captureStatus(iface, opts))
	}
	return tw.Flush()
}

func captureStatus(iface netif.Interface, opts netif.Options) string {
	if reason := opts.Excluded(iface); reason != "" {
		return "no (" + reason + ")"
	}
	if !iface.Ethernet {
		return "no (not ethernet)"
	}
	return "yes"
}
