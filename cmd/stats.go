package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/zMarques/albion-network/internal/config"
)

// metricPrefix selects the daemon's own series from the exposition.
const metricPrefix = "albion_network_"

var statsAddr string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show runtime statistics",
	Long: `Query the running daemon's metrics endpoint for runtime statistics.

Shows: frames captured, filter drops by reason, queue depth and drops,
payloads and messages decoded, per interface where applicable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := statsURL()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		return runStats(ctx, url, cmd.OutOrStdout())
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsAddr, "addr", "",
		"metrics address host:port (default: metrics.listen from config)")
}

// statsURL builds the metrics URL from the flag or the configuration.
func statsURL() (string, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	addr := statsAddr
	if addr == "" {
		if !cfg.Metrics.Enabled {
			return "", fmt.Errorf("metrics are disabled: set metrics.enabled or pass --addr")
		}
		addr = cfg.Metrics.Listen
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid metrics address %q: %w", addr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + cfg.Metrics.Path, nil
}

// runStats fetches url and prints the albion_network_* samples.
func runStats(ctx context.Context, url string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query stats (is the daemon running?): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to query stats: %s", resp.Status)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse metrics: %w", err)
	}

	names := make([]string, 0, len(families))
	for name := range families {
		if strings.HasPrefix(name, metricPrefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tLABELS\tVALUE")
	for _, name := range names {
		mf := families[name]
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n",
				strings.TrimPrefix(name, metricPrefix), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m))
		}
	}
	return tw.Flush()
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}

func formatValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return fmt.Sprintf("%g", m.GetUntyped().GetValue())
	}
}
