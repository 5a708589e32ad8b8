package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmagro/netcfg/internal/output"
)

func networksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List network profiles and whether they resolve",
		Long: `List every network profile declared in the project file together with the
secrets it references and whether it resolves with the secrets available now.

Example:
  netcfg networks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.loadResolver(cmd.Context())
			if err != nil {
				return err
			}

			tbl := output.NewTable(cmd.OutOrStdout(), "Network", "Secrets", "Status")
			for _, st := range r.Check() {
				name := st.Name
				if st.Default {
					name += " " + output.Dim("(default)")
				}
				refs := strings.Join(st.Refs, ", ")
				if refs == "" {
					refs = output.Dim("—")
				}
				tbl.AddRow(name, refs, output.Status(st.Err))
			}
			tbl.Print()
			return nil
		},
	}
}
