package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arxrun/arx/flow"
)

func newFlowRenderCmd(root *rootFlags) *cobra.Command {
	var (
		flowID string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a flow as a diagram (mmd, dot, or json); pure projection, no side effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flow.LoadRegistry(root.registryPath)
			if err != nil {
				return err
			}
			flowDef, ok := reg.Flows[flowID]
			if !ok {
				return fmt.Errorf("flow %q not found in registry", flowID)
			}

			rendered, err := flow.Render(flowDef, flow.RenderFormat(format))
			if err != nil {
				return err
			}

			if out != "" {
				return os.WriteFile(out, []byte(rendered), 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "flow id to render (required)")
	cmd.MarkFlagRequired("flow") //nolint:errcheck
	cmd.Flags().StringVar(&format, "format", "mmd", "output format: mmd, dot, or json")
	cmd.Flags().StringVar(&out, "out", "", "write to this path instead of stdout")

	return cmd
}
