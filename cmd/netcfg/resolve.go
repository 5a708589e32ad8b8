package main

import (
	"github.com/spf13/cobra"

	"github.com/dmagro/netcfg/internal/output"
)

func resolveCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the assembled configuration with secrets redacted",
		Long: `Resolve one network profile and print the result. Secret values are masked
and credential references are hidden.

Examples:
  netcfg resolve
  netcfg resolve -n mainnet --set gasPrice=30gwei --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.resolve(cmd.Context())
			if err != nil {
				return err
			}
			if format == output.FormatJSON {
				output.DisableColors()
			}
			return output.Encode(cmd.OutOrStdout(), format, cfg.Redacted())
		},
	}

	cmd.Flags().StringVar(&format, "format", output.FormatYAML, "Output format: yaml|json")
	return cmd
}
