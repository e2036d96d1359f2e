package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderIncludesLabeledCounters(t *testing.T) {
	IncScoringRun("at-risk")
	IncScoringRun("at-risk")
	AddExcludedItems("unknown_question", 3)
	AddExcludedItems("ignored", 0)
	IncWorkerJob("dropped")
	IncRateLimited("SUBMIT")

	out := Render()
	assert.Contains(t, out, `pulsescore_runs_total{tier="at-risk"}`)
	assert.Contains(t, out, `pulsescore_excluded_items_total{reason="unknown_question"}`)
	assert.NotContains(t, out, `reason="ignored"`)
	assert.Contains(t, out, `worker_jobs_total{outcome="dropped"}`)
	assert.Contains(t, out, `http_rate_limited_total{group="SUBMIT"} 1`)
	assert.Contains(t, out, "# TYPE http_request_duration_ms histogram")
}

func TestHistogramIsCumulative(t *testing.T) {
	h := newHistogram([]float64{1, 10})
	h.Observe(0.5)
	h.Observe(5)
	h.Observe(50)

	var b strings.Builder
	snap := h.Snapshot()
	var cumulative uint64
	for i := range snap.buckets {
		cumulative += snap.counts[i]
		b.WriteString(formatFloat(snap.buckets[i]))
		b.WriteString("=")
		b.WriteString(formatFloat(float64(cumulative)))
		b.WriteString(" ")
	}
	assert.Equal(t, "1=1 10=2 ", b.String())
	assert.Equal(t, uint64(3), snap.count)
}
