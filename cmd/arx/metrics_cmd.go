package main

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arxrun/arx/metrics"
)

// newMetricsCmd groups metrics-facing CLI surfaces: currently the CI
// gate that scrapes /metrics and checks it against fixed thresholds.
func newMetricsCmd(log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect and assert on the /metrics surface",
	}
	cmd.AddCommand(newMetricsAssertCmd())
	return cmd
}

func newMetricsAssertCmd() *cobra.Command {
	var (
		url       string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "assert",
		Short: "Scrape /metrics and check the CI gate (flow counters present, p95 latency under threshold)",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := metrics.AssertURL(url, threshold)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flow_started_total=%.0f flow_success_total=%.0f worst_p95_step_latency_ms=%.2f threshold_ms=%.2f\n",
				result.FlowStartedTotal, result.FlowSuccessTotal, result.P95LatencyMs, result.ThresholdMs)

			personas := make([]string, 0, len(result.PersonaP95Ms))
			for persona := range result.PersonaP95Ms {
				personas = append(personas, persona)
			}
			sort.Strings(personas)
			for _, persona := range personas {
				fmt.Fprintf(out, "p95_step_latency_ms[persona=%s]=%.2f\n", persona, result.PersonaP95Ms[persona])
			}

			if !result.OK() {
				for _, f := range result.Failures {
					fmt.Fprintln(out, "FAIL:", f)
				}
				return fmt.Errorf("metrics assertion failed (%d condition(s))", len(result.Failures))
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:9108/metrics", "metrics endpoint to scrape")
	cmd.Flags().Float64Var(&threshold, "p95-threshold-ms", metrics.DefaultP95ThresholdMs, "maximum acceptable p95 step_latency_ms")

	return cmd
}
