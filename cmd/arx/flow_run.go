package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arxrun/arx/flow"
	"github.com/arxrun/arx/metrics"
)

func newFlowRunCmd(root *rootFlags, log zerolog.Logger) *cobra.Command {
	var (
		flowID    string
		taskID    string
		params    []string
		dryRun    bool
		live      bool
		outPath   string
		persona   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a flow's nodes in topological order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dryRun && !live {
				return fmt.Errorf("one of --dry-run or --live is required")
			}
			if dryRun && live {
				return fmt.Errorf("--dry-run and --live are mutually exclusive")
			}
			if live {
				if os.Getenv("AR_ENABLE_FLOW_ENGINE") != "1" {
					return fmt.Errorf("live execution requires AR_ENABLE_FLOW_ENGINE=1")
				}
				if os.Getenv("ALLOW_WRITES") != "1" {
					return fmt.Errorf("live execution requires ALLOW_WRITES=1")
				}
			}

			reg, err := flow.LoadRegistry(root.registryPath)
			if err != nil {
				return err
			}
			if lr := flow.Lint(reg); lr.HasError() {
				return fmt.Errorf("registry %s fails lint; run 'arx flow lint' for details", root.registryPath)
			}

			parameters, err := parseParams(params)
			if err != nil {
				return err
			}

			if taskID == "" {
				taskID = uuid.NewString()
			}

			collector := metrics.New(prometheus.NewRegistry(), true)
			runner := flow.NewRunner(reg, flow.WithCollector(collector))

			summary, err := runner.Run(cmd.Context(), flow.RunInput{
				FlowID:     flowID,
				RunID:      uuid.NewString(),
				TaskID:     taskID,
				Persona:    persona,
				Parameters: parameters,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			printSummary(cmd, summary)

			if outPath != "" {
				if writeErr := writeSummaryJSON(outPath, summary); writeErr != nil {
					log.Warn().Err(writeErr).Str("path", outPath).Msg("failed to write run summary")
				}
			}

			if summary.Failed > 0 {
				return fmt.Errorf("flow %s finished with %d failed node(s)", flowID, summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "flow id to execute (required)")
	cmd.MarkFlagRequired("flow") //nolint:errcheck
	cmd.Flags().StringVar(&taskID, "task-id", "", "task id to tag this run with (default: generated)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "k=v parameter, repeatable")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "execute without side effects")
	cmd.Flags().BoolVar(&live, "live", false, "execute with side effects (requires AR_ENABLE_FLOW_ENGINE=1 and ALLOW_WRITES=1)")
	cmd.Flags().StringVar(&persona, "persona", "", "persona label attached to emitted metrics")
	cmd.Flags().StringVar(&outPath, "out", "", "write the run summary as JSON to this path")

	return cmd
}

func parseParams(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --param %q, expected k=v", kv)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}

func printSummary(cmd *cobra.Command, s *flow.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "flow: %s\n", s.FlowID)
	fmt.Fprintf(out, "nodes: %d  success: %d  failed: %d  skipped: %d  success_rate: %.2f\n",
		s.TotalNodes, s.Successful, s.Failed, s.Skipped, s.SuccessRate)
	fmt.Fprintf(out, "duration: %.2fs  mode: %s\n", s.DurationSecs, s.ExecMode)
	for _, entry := range s.Log {
		fmt.Fprintf(out, "  [%s] %s: %s\n", entry.Time.Format("15:04:05"), entry.NodeID, entry.Message)
	}
}

func writeSummaryJSON(path string, s *flow.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
