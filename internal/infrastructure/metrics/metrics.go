package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jan-server/services/attachment-api/internal/domain/attachment"
	"jan-server/services/attachment-api/internal/domain/derivation"
)

// Attachment-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Committed artifacts
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "artifacts_committed_total",
			Help:      "Artifacts moved to their final path",
		},
		[]string{"attribute"},
	)

	CommitBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "artifact_bytes_total",
			Help:      "Total bytes of committed artifacts",
		},
		[]string{"attribute"},
	)

	// Fatal failures abort the record save
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "failures_total",
			Help:      "Fatal attachment failures by kind",
		},
		[]string{"attribute", "kind"},
	)

	// Advisory failures are logged only
	AdvisoriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "advisories_total",
			Help:      "Non-fatal attachment failures by kind",
		},
		[]string{"attribute", "kind"},
	)

	// Derived images written by the pipeline
	DerivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "derived_images_total",
			Help:      "Thumbnails and watermarks produced",
		},
		[]string{"stage", "status"},
	)

	DerivationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "attachment_api",
			Name:      "derivation_duration_seconds",
			Help:      "Derived image pipeline duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordDerivation records one pipeline stage outcome.
func RecordDerivation(stage string, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	DerivedTotal.WithLabelValues(stage, status).Inc()
}

// RecordDerivationDuration observes a full pipeline run.
func RecordDerivationDuration(durationSec float64) {
	DerivationDuration.Observe(durationSec)
}

// AttachmentRecorder forwards controller events to the prometheus collectors.
type AttachmentRecorder struct{}

func NewAttachmentRecorder() *AttachmentRecorder {
	return &AttachmentRecorder{}
}

func (AttachmentRecorder) Committed(attribute string, bytes int64) {
	CommitsTotal.WithLabelValues(attribute).Inc()
	CommitBytesTotal.WithLabelValues(attribute).Add(float64(bytes))
}

func (AttachmentRecorder) Failed(attribute string, kind attachment.Kind) {
	FailuresTotal.WithLabelValues(attribute, string(kind)).Inc()
}

func (AttachmentRecorder) Advisory(attribute string, kind attachment.Kind) {
	AdvisoriesTotal.WithLabelValues(attribute, string(kind)).Inc()
}

// DerivationRecorder forwards pipeline stages to the prometheus collectors.
type DerivationRecorder struct{}

func NewDerivationRecorder() *DerivationRecorder {
	return &DerivationRecorder{}
}

func (DerivationRecorder) Stage(stage string, ok bool) {
	RecordDerivation(stage, ok)
}

func (DerivationRecorder) Duration(seconds float64) {
	RecordDerivationDuration(seconds)
}

var (
	_ attachment.Recorder = AttachmentRecorder{}
	_ derivation.Recorder = DerivationRecorder{}
)
