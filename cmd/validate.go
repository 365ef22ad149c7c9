package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zMarques/albion-network/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and print the effective settings",
	Long: `Load the configuration file, apply defaults and ALBION_NETWORK_* environment
overrides, validate the result and print it as YAML.

Examples:
  albion-network validate -c /etc/albion-network/config.yml
  ALBION_NETWORK_QUEUE_DROP_POLICY=head albion-network validate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(configFile, cmd.OutOrStdout())
	},
}

func runValidate(path string, out io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}

	data, err := yaml.Marshal(map[string]*config.GlobalConfig{"albion-network": cfg})
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	fmt.Fprintln(out, "# VALID")
	_, err = out.Write(data)
	return err
}
