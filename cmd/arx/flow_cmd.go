package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// newFlowCmd groups the four flow-engine subcommands: lint, run, render,
// and list.
func newFlowCmd(root *rootFlags, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Lint, run, render, and list flow registry definitions",
	}

	cmd.AddCommand(newFlowLintCmd(root))
	cmd.AddCommand(newFlowRunCmd(root, log))
	cmd.AddCommand(newFlowRenderCmd(root))
	cmd.AddCommand(newFlowListCmd(root))

	return cmd
}
