package batch

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hostflow-stack/hostflow/internal/errors"
)

// Metrics is an immutable snapshot aggregated once from a closed set
// of results. It is never recomputed incrementally.
type Metrics struct {
	TotalWorkflows int
	SuccessCount   int
	FailureCount   int
	Failures       []*Result

	// Rates are percentages of TotalWorkflows.
	SuccessRate float64
	FailureRate float64

	ThroughputOpsPerSec float64

	// Percentiles cover successful latencies only, nearest-rank.
	P50LatencyMs int64
	P99LatencyMs int64

	Start time.Time
	End   time.Time
}

// From aggregates a completed batch.
func From(results []*Result, start, end time.Time) (*Metrics, error) {
	if len(results) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "Results cannot be empty")
	}

	m := &Metrics{
		TotalWorkflows: len(results),
		Start:          start,
		End:            end,
	}

	var successLatencies []int64
	for _, r := range results {
		if r.Succeeded {
			m.SuccessCount++
			successLatencies = append(successLatencies, r.LatencyMs)
		} else {
			m.FailureCount++
			m.Failures = append(m.Failures, r)
		}
	}

	total := float64(m.TotalWorkflows)
	m.SuccessRate = float64(m.SuccessCount) / total * 100
	m.FailureRate = float64(m.FailureCount) / total * 100

	if elapsed := end.Sub(start).Seconds(); elapsed > 0 {
		m.ThroughputOpsPerSec = total / elapsed
	}

	sort.Slice(successLatencies, func(i, j int) bool {
		return successLatencies[i] < successLatencies[j]
	})
	m.P50LatencyMs = percentile(successLatencies, 0.50)
	m.P99LatencyMs = percentile(successLatencies, 0.99)

	return m, nil
}

// percentile returns the nearest-rank percentile of an ascending
// sorted slice: index = ceil(p*n) - 1, clamped. Empty input yields 0.
func percentile(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Report renders the human-readable summary block.
func (m *Metrics) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Batch results: %d workflows in %s\n",
		m.TotalWorkflows, m.End.Sub(m.Start).Round(time.Millisecond))
	fmt.Fprintf(&b, "  success: %d (%.1f%%)  failure: %d (%.1f%%)\n",
		m.SuccessCount, m.SuccessRate, m.FailureCount, m.FailureRate)
	fmt.Fprintf(&b, "  latency: p50=%dms p99=%dms\n", m.P50LatencyMs, m.P99LatencyMs)
	fmt.Fprintf(&b, "  throughput: %.2f ops/sec\n", m.ThroughputOpsPerSec)

	if len(m.Failures) > 0 {
		b.WriteString("Failures:\n")
		for _, f := range m.Failures {
			fmt.Fprintf(&b, "  %s\n", f.Summary())
		}
	}
	return b.String()
}
