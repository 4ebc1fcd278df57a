package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	runsStartedTotal     atomic.Uint64
	runsCompletedTotal   atomic.Uint64
	resumesScoredTotal   atomic.Uint64
	resumesFailedTotal   atomic.Uint64
	jobDescriptionsTotal atomic.Uint64
	exportsTotal         atomic.Uint64

	runDuration    = newHistogram([]float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000})
	resumeDuration = newHistogram([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000})
)

// IncRunStarted increments the started runs counter.
func IncRunStarted() {
	runsStartedTotal.Add(1)
}

// IncRunCompleted increments the completed runs counter.
func IncRunCompleted() {
	runsCompletedTotal.Add(1)
}

// IncResumeScored increments the scored resumes counter.
func IncResumeScored() {
	resumesScoredTotal.Add(1)
}

// IncResumeFailed counts a resume that could not be read.
func IncResumeFailed() {
	resumesFailedTotal.Add(1)
}

// IncJobDescriptionSet counts a stored job description.
func IncJobDescriptionSet() {
	jobDescriptionsTotal.Add(1)
}

// IncExport counts a downloaded results export.
func IncExport() {
	exportsTotal.Add(1)
}

// ObserveRunDurationMs records an analysis run duration in milliseconds.
func ObserveRunDurationMs(value float64) {
	runDuration.Observe(clamp(value))
}

// ObserveResumeDurationMs records the extract+score time of one resume in milliseconds.
func ObserveResumeDurationMs(value float64) {
	resumeDuration.Observe(clamp(value))
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
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
	writeCounter(&buf, "analysis_runs_started_total", "Total analysis runs started", runsStartedTotal.Load())
	writeCounter(&buf, "analysis_runs_completed_total", "Total analysis runs completed", runsCompletedTotal.Load())
	writeCounter(&buf, "resumes_scored_total", "Total resumes scored", resumesScoredTotal.Load())
	writeCounter(&buf, "resumes_failed_total", "Total resumes that could not be read", resumesFailedTotal.Load())
	writeCounter(&buf, "job_descriptions_set_total", "Total job descriptions stored", jobDescriptionsTotal.Load())
	writeCounter(&buf, "exports_total", "Total results exports served", exportsTotal.Load())
	writeHistogram(&buf, "analysis_run_duration_ms", "Analysis run duration in milliseconds", runDuration.Snapshot())
	writeHistogram(&buf, "resume_duration_ms", "Per-resume extract and score duration in milliseconds", resumeDuration.Snapshot())
	return buf.String()
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

// Observe records value in the first bucket whose bound it fits; rendering accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
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
