package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	predictionsTotal        = newLabeledCounter()
	predictionFailuresTotal atomic.Uint64

	scoreDuration = newHistogram([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000})

	eventsReceivedTotal  atomic.Uint64
	eventsProcessedTotal atomic.Uint64
	eventsFailedTotal    atomic.Uint64
	eventsDroppedTotal   atomic.Uint64
	followupsTotal       = newLabeledCounter()
)

// IncPrediction increments the predictions counter for the given category.
func IncPrediction(category string) {
	predictionsTotal.Inc(category)
}

// IncPredictionFailure increments the failed predictions counter.
func IncPredictionFailure() {
	predictionFailuresTotal.Add(1)
}

// ObserveScoreDurationMs records a score provider call duration in milliseconds.
func ObserveScoreDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scoreDuration.Observe(value)
}

// IncEventsReceived counts queue messages picked up by the worker.
func IncEventsReceived() { eventsReceivedTotal.Add(1) }

// IncEventsProcessed counts messages handled and deleted.
func IncEventsProcessed() { eventsProcessedTotal.Add(1) }

// IncEventsFailed counts messages left on the queue for redelivery.
func IncEventsFailed() { eventsFailedTotal.Add(1) }

// IncEventsDropped counts unreadable messages deleted without handling.
func IncEventsDropped() { eventsDroppedTotal.Add(1) }

// IncFollowup counts follow-ups raised per stress category.
func IncFollowup(category string) { followupsTotal.Inc(category) }

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
	writeLabeledCounter(&buf, "predictions_total", "Total predictions by stress category", "category", predictionsTotal.Snapshot())
	writeCounter(&buf, "prediction_failures_total", "Total predictions that could not be scored", predictionFailuresTotal.Load())
	writeHistogram(&buf, "score_duration_ms", "Score provider duration in milliseconds", scoreDuration.Snapshot())
	writeCounter(&buf, "events_received_total", "Total prediction events received by the worker", eventsReceivedTotal.Load())
	writeCounter(&buf, "events_processed_total", "Total prediction events processed", eventsProcessedTotal.Load())
	writeCounter(&buf, "events_failed_total", "Total prediction events left for redelivery", eventsFailedTotal.Load())
	writeCounter(&buf, "events_dropped_total", "Total unreadable prediction events deleted", eventsDroppedTotal.Load())
	writeLabeledCounter(&buf, "followups_total", "Total follow-ups raised by stress category", "category", followupsTotal.Snapshot())
	return buf.String()
}

type labeledCounter struct {
	mu     sync.Mutex
	values map[string]uint64
}

func newLabeledCounter() *labeledCounter {
	return &labeledCounter{values: make(map[string]uint64)}
}

func (c *labeledCounter) Inc(label string) {
	c.mu.Lock()
	c.values[label]++
	c.mu.Unlock()
}

func (c *labeledCounter) Snapshot() map[string]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
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

// Observe records value in the first bucket that bounds it; Render accumulates.
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
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
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

// SinceMillis returns the milliseconds elapsed since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
