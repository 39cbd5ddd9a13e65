package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	jobCreatedTotal   atomic.Uint64
	jobCompletedTotal atomic.Uint64
	jobFailedTotal    atomic.Uint64

	pipelineRunTotal       atomic.Uint64
	pipelineRunFailedTotal atomic.Uint64

	executionStartedTotal   atomic.Uint64
	executionCompletedTotal atomic.Uint64
	executionFailedTotal    atomic.Uint64

	workerReceivedTotal      atomic.Uint64
	workerCompletedTotal     atomic.Uint64
	workerFailedTotal        atomic.Uint64
	workerUnrecoverableTotal atomic.Uint64

	pipelineDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncJobCreated increments the ingestion jobs created counter.
func IncJobCreated() {
	jobCreatedTotal.Add(1)
}

// IncJobCompleted increments the ingestion jobs completed counter.
func IncJobCompleted() {
	jobCompletedTotal.Add(1)
}

// IncJobFailed increments the ingestion jobs failed counter.
func IncJobFailed() {
	jobFailedTotal.Add(1)
}

// IncExecutionStarted increments the workflow executions started counter.
func IncExecutionStarted() {
	executionStartedTotal.Add(1)
}

// IncExecutionCompleted increments the workflow executions completed counter.
func IncExecutionCompleted() {
	executionCompletedTotal.Add(1)
}

// IncExecutionFailed increments the workflow executions failed counter.
func IncExecutionFailed() {
	executionFailedTotal.Add(1)
}

// IncWorkerMessagesReceived increments the queue messages received counter.
func IncWorkerMessagesReceived() {
	workerReceivedTotal.Add(1)
}

// IncWorkerMessagesCompleted increments the queue messages completed counter.
func IncWorkerMessagesCompleted() {
	workerCompletedTotal.Add(1)
}

// IncWorkerMessagesFailed increments the queue messages failed counter.
func IncWorkerMessagesFailed() {
	workerFailedTotal.Add(1)
}

// IncWorkerMessagesDeletedUnrecoverable increments the counter for messages
// deleted without processing because they can never succeed.
func IncWorkerMessagesDeletedUnrecoverable() {
	workerUnrecoverableTotal.Add(1)
}

// ObservePipelineRun records one pipeline run's duration and outcome.
func ObservePipelineRun(elapsed time.Duration, ok bool) {
	pipelineRunTotal.Add(1)
	if !ok {
		pipelineRunFailedTotal.Add(1)
	}
	ms := float64(elapsed.Microseconds()) / 1000.0
	if ms < 0 {
		ms = 0
	}
	pipelineDuration.Observe(ms)
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
	writeCounter(&buf, "ingest_jobs_created_total", "Total ingestion jobs created", jobCreatedTotal.Load())
	writeCounter(&buf, "ingest_jobs_completed_total", "Total ingestion jobs completed", jobCompletedTotal.Load())
	writeCounter(&buf, "ingest_jobs_failed_total", "Total ingestion jobs failed", jobFailedTotal.Load())
	writeCounter(&buf, "pipeline_runs_total", "Total analysis pipeline runs", pipelineRunTotal.Load())
	writeCounter(&buf, "pipeline_runs_failed_total", "Total analysis pipeline runs that failed", pipelineRunFailedTotal.Load())
	writeCounter(&buf, "workflow_executions_started_total", "Total workflow executions started", executionStartedTotal.Load())
	writeCounter(&buf, "workflow_executions_completed_total", "Total workflow executions completed", executionCompletedTotal.Load())
	writeCounter(&buf, "workflow_executions_failed_total", "Total workflow executions failed", executionFailedTotal.Load())
	writeCounter(&buf, "worker_messages_received_total", "Total queue messages received", workerReceivedTotal.Load())
	writeCounter(&buf, "worker_messages_completed_total", "Total queue messages completed", workerCompletedTotal.Load())
	writeCounter(&buf, "worker_messages_failed_total", "Total queue messages failed", workerFailedTotal.Load())
	writeCounter(&buf, "worker_messages_unrecoverable_total", "Total queue messages deleted as unrecoverable", workerUnrecoverableTotal.Load())
	writeHistogram(&buf, "pipeline_run_duration_ms", "Analysis pipeline run duration in milliseconds", pipelineDuration.Snapshot())
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

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
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
