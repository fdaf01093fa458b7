package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"doceditor/internal/extract"
)

// ExtractionMetrics counts extraction passes by format and outcome.
type ExtractionMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewExtractionMetrics registers the extraction collectors on reg.
func NewExtractionMetrics(reg prometheus.Registerer) (*ExtractionMetrics, error) {
	m := &ExtractionMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_extractions_total",
				Help: "Total number of document extraction passes.",
			},
			[]string{"format", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "document_extraction_duration_seconds",
				Help:    "Duration of document extraction passes.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),
	}
	for _, c := range []prometheus.Collector{m.total, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ExtractionMetrics) observe(format string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(format, statusOf(err)).Inc()
	m.duration.WithLabelValues(format).Observe(took.Seconds())
}

func statusOf(err error) string {
	if err == nil {
		return "ok"
	}
	switch extract.KindOf(err) {
	case extract.KindInvalidLocator:
		return "invalid_locator"
	case extract.KindFileNotFound:
		return "file_not_found"
	case extract.KindUnsupportedFormat:
		return "unsupported_format"
	case extract.KindExtractionUnavailable:
		return "unavailable"
	case extract.KindImageExtractionFailed:
		return "image_failed"
	default:
		return "failed"
	}
}
