package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/arxrun/arx/flow"
)

func newFlowLintCmd(root *rootFlags) *cobra.Command {
	var flowID string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate the flow registry, or one flow within it",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := flow.LoadRegistry(root.registryPath)
			if err != nil {
				return err
			}

			result := flow.Lint(reg)
			printFindings(cmd, "registry", result.Registry)

			hasError := result.Registry.HasError()
			if flowID != "" {
				fr, ok := result.Flows[flowID]
				if !ok {
					return fmt.Errorf("flow %q not found in registry", flowID)
				}
				printFindings(cmd, flowID, fr)
				hasError = hasError || fr.HasError()
			} else {
				for _, id := range sortedKeys(result.Flows) {
					fr := result.Flows[id]
					printFindings(cmd, id, fr)
					hasError = hasError || fr.HasError()
				}
			}

			if hasError {
				return fmt.Errorf("lint found one or more ERROR findings")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "lint only this flow id (default: whole registry)")
	return cmd
}

func printFindings(cmd *cobra.Command, scope string, result flow.ValidationResult) {
	if len(result.Findings) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", scope)
		return
	}
	for _, f := range result.Findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: [%s] %s: %s\n", scope, f.Severity, f.Code, f.Message)
	}
}

func sortedKeys(m map[string]flow.ValidationResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
