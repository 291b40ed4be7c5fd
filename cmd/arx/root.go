package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	registryPath string
}

func newRootCmd(log zerolog.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "arx",
		Short:         "arx orchestrates flow-engine DAGs across persona-routed worker pools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.registryPath, "registry", "flows.yaml", "path to the flow registry YAML document")

	cmd.AddCommand(newFlowCmd(flags, log))
	cmd.AddCommand(newWorkerCmd(flags, log))
	cmd.AddCommand(newMetricsCmd(log))

	return cmd
}
