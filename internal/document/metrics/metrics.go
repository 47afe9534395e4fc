package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the document module.
type Metrics struct {
	Uploads         *prometheus.CounterVec
	UploadRejected  prometheus.Counter
	Reviews         *prometheus.CounterVec
	UploadSizeBytes prometheus.Histogram
}

// New creates and registers all document metrics.
func New() *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_documents_uploaded_total",
			Help: "Documents uploaded, by document type",
		}, []string{"doc_type"}),
		UploadRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "landreg_documents_upload_rejected_total",
			Help: "Uploads rejected by size or content-type validation",
		}),
		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "landreg_documents_reviewed_total",
			Help: "Officer review decisions, by outcome",
		}, []string{"decision"}),
		UploadSizeBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "landreg_document_upload_size_bytes",
			Help:    "Size distribution of accepted uploads",
			Buckets: prometheus.ExponentialBuckets(64<<10, 2, 8),
		}),
	}
}

func (m *Metrics) ObserveUpload(docType string, sizeBytes int64) {
	m.Uploads.WithLabelValues(docType).Inc()
	m.UploadSizeBytes.Observe(float64(sizeBytes))
}

func (m *Metrics) IncrementUploadRejected() {
	m.UploadRejected.Inc()
}

func (m *Metrics) ObserveReview(decision string) {
	m.Reviews.WithLabelValues(decision).Inc()
}
