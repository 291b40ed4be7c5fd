package metrics

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// DefaultP95ThresholdMs is the CI gate's default latency threshold.
const DefaultP95ThresholdMs = 1200.0

// AssertResult is the outcome of one metrics-assertion run.
type AssertResult struct {
	FlowStartedTotal float64
	FlowSuccessTotal float64
	// P95LatencyMs is the worst (highest) per-persona p95, for a single
	// summary number; PersonaP95Ms holds the full per-persona breakdown.
	P95LatencyMs float64
	PersonaP95Ms map[string]float64
	ThresholdMs  float64
	Failures     []string
}

// OK reports whether every condition of the CI gate passed.
func (r AssertResult) OK() bool { return len(r.Failures) == 0 }

// AssertURL scrapes url, parses the Prometheus text exposition format,
// and checks three conditions: flow_started_total ≥ 1,
// flow_success_total ≥ 1, and, for every persona with step_latency_ms
// samples, p95(step_latency_ms) ≤ thresholdMs.
func AssertURL(url string, thresholdMs float64) (AssertResult, error) {
	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return AssertResult{}, fmt.Errorf("scraping %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return AssertResult{}, fmt.Errorf("reading metrics body: %w", err)
	}

	return Assert(body, thresholdMs)
}

// Assert parses raw Prometheus text exposition bytes and applies the CI
// gate's conditions.
func Assert(body []byte, thresholdMs float64) (AssertResult, error) {
	if thresholdMs <= 0 {
		thresholdMs = DefaultP95ThresholdMs
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil {
		return AssertResult{}, fmt.Errorf("parsing metrics exposition: %w", err)
	}

	result := AssertResult{ThresholdMs: thresholdMs}

	result.FlowStartedTotal = sumCounter(families["flow_started_total"])
	result.FlowSuccessTotal = sumCounter(families["flow_success_total"])
	result.PersonaP95Ms = p95ByPersona(families["step_latency_ms"])

	if result.FlowStartedTotal < 1 {
		result.Failures = append(result.Failures, "flow_started_total < 1")
	}
	if result.FlowSuccessTotal < 1 {
		result.Failures = append(result.Failures, "flow_success_total < 1")
	}

	personas := make([]string, 0, len(result.PersonaP95Ms))
	for persona := range result.PersonaP95Ms {
		personas = append(personas, persona)
	}
	sort.Strings(personas)

	for _, persona := range personas {
		p95 := result.PersonaP95Ms[persona]
		if p95 > result.P95LatencyMs {
			result.P95LatencyMs = p95
		}
		if p95 > thresholdMs {
			result.Failures = append(result.Failures, fmt.Sprintf("p95 step_latency_ms[persona=%s] %.2f > threshold %.2f", persona, p95, thresholdMs))
		}
	}

	return result, nil
}

func sumCounter(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

// personaLabel returns the "persona" label value of a metric, or ""
// if the series carries none.
func personaLabel(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "persona" {
			return lp.GetValue()
		}
	}
	return ""
}

// p95ByPersona groups step_latency_ms series by their "persona" label
// and returns each persona's p95, computed independently so a fast
// persona can't mask a slow one (or vice versa) the way a single global
// aggregate would.
func p95ByPersona(mf *dto.MetricFamily) map[string]float64 {
	if mf == nil {
		return nil
	}

	byPersona := map[string][]*dto.Metric{}
	for _, m := range mf.GetMetric() {
		persona := personaLabel(m)
		byPersona[persona] = append(byPersona[persona], m)
	}

	result := make(map[string]float64, len(byPersona))
	for persona, metrics := range byPersona {
		if p95 := p95FromHistogram(metrics); p95 > 0 || len(metrics) > 0 {
			result[persona] = p95
		}
	}
	return result
}

// p95FromHistogram aggregates the given histogram series into one
// cumulative-bucket view and returns the smallest `le` whose cumulative
// count is ≥ 0.95 × total count.
func p95FromHistogram(metrics []*dto.Metric) float64 {
	cumulative := map[float64]float64{}
	var total float64
	for _, m := range metrics {
		h := m.GetHistogram()
		total += float64(h.GetSampleCount())
		for _, b := range h.GetBucket() {
			cumulative[b.GetUpperBound()] += float64(b.GetCumulativeCount())
		}
	}
	if total == 0 {
		return 0
	}

	bounds := make([]float64, 0, len(cumulative))
	for b := range cumulative {
		bounds = append(bounds, b)
	}
	sort.Float64s(bounds)

	target := 0.95 * total
	for _, b := range bounds {
		if cumulative[b] >= target {
			return b
		}
	}
	if len(bounds) > 0 {
		return bounds[len(bounds)-1]
	}
	return 0
}
