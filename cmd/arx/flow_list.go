package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arxrun/arx/flow"
)

func newFlowListCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the flows declared in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flow.LoadRegistry(root.registryPath)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(reg.Flows))
			for id := range reg.Flows {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tNODES\tGUARDS")
			for _, id := range ids {
				f := reg.Flows[id]
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", f.ID, f.Name, len(f.Nodes), len(f.Guards))
			}
			return w.Flush()
		},
	}

	return cmd
}
