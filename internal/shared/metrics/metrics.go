package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	scoringRuns        = newCounterVec("tier")
	excludedItems      = newCounterVec("reason")
	httpRequests       = newCounterVec("method", "status")
	workerJobs         = newCounterVec("outcome")
	rateLimited        = newCounterVec("group")
	certificatesSent   atomic.Uint64
	certificatesFailed atomic.Uint64

	scoringDuration = newHistogram([]float64{0.1, 0.5, 1, 5, 10, 50, 100, 500})
	httpDuration    = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000})
)

// IncScoringRun counts one completed pipeline run for the resulting tier.
func IncScoringRun(tier string) {
	scoringRuns.Inc(tier)
}

// AddExcludedItems counts response items dropped during theme scoring.
func AddExcludedItems(reason string, n int) {
	if n <= 0 {
		return
	}
	excludedItems.Add(uint64(n), reason)
}

// IncCertificateSent increments the delivered certificate counter.
func IncCertificateSent() {
	certificatesSent.Add(1)
}

// IncCertificateFailed increments the failed certificate counter.
func IncCertificateFailed() {
	certificatesFailed.Add(1)
}

// IncWorkerJob counts one certificate job by outcome: completed, failed or dropped.
func IncWorkerJob(outcome string) {
	workerJobs.Inc(outcome)
}

// IncRateLimited counts one request rejected by the rate limiter.
func IncRateLimited(group string) {
	rateLimited.Inc(group)
}

// ObserveScoringDurationMs records a pipeline duration in milliseconds.
func ObserveScoringDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scoringDuration.Observe(value)
}

// Middleware records request counts and latency.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		httpRequests.Inc(c.Request.Method, strconv.Itoa(c.Writer.Status()))
		httpDuration.Observe(elapsed)
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "pulsescore_runs_total", "Total scoring pipeline runs by tier", scoringRuns)
	writeCounterVec(&buf, "pulsescore_excluded_items_total", "Response items excluded from scoring by reason", excludedItems)
	writeHistogram(&buf, "pulsescore_duration_ms", "Scoring pipeline duration in milliseconds", scoringDuration.Snapshot())
	writeCounter(&buf, "certificates_sent_total", "Total certificate emails delivered", certificatesSent.Load())
	writeCounter(&buf, "certificates_failed_total", "Total certificate emails that failed", certificatesFailed.Load())
	writeCounterVec(&buf, "worker_jobs_total", "Certificate jobs handled by the worker by outcome", workerJobs)
	writeCounterVec(&buf, "http_requests_total", "HTTP requests by method and status", httpRequests)
	writeCounterVec(&buf, "http_rate_limited_total", "Requests rejected by the rate limiter by group", rateLimited)
	writeHistogram(&buf, "http_request_duration_ms", "HTTP request duration in milliseconds", httpDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	mu     sync.Mutex
	labels []string
	values map[string]uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: map[string]uint64{}}
}

func (v *counterVec) Inc(labelValues ...string) {
	v.Add(1, labelValues...)
}

func (v *counterVec) Add(n uint64, labelValues ...string) {
	key := strings.Join(labelValues, "\x00")
	v.mu.Lock()
	v.values[key] += n
	v.mu.Unlock()
}

func (v *counterVec) snapshot() ([]string, map[string]uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	keys := make([]string, 0, len(v.values))
	out := make(map[string]uint64, len(v.values))
	for k, val := range v.values {
		keys = append(keys, k)
		out[k] = val
	}
	sort.Strings(keys)
	return keys, out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, v *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys, values := v.snapshot()
	for _, key := range keys {
		parts := strings.Split(key, "\x00")
		pairs := make([]string, 0, len(v.labels))
		for i, label := range v.labels {
			val := ""
			if i < len(parts) {
				val = parts[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, val))
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", name, strings.Join(pairs, ","), values[key])
	}
}

// Bucket counts are stored per bucket and made cumulative on render.
func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
