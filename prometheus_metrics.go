package medocr

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const outcomeOK = "ok"

// OcrMetrics groups the collectors of one server instance. Tests register
// them on their own registry, cli-httpd on the default one.
type OcrMetrics struct {
	inFlightGauge prometheus.Gauge
	counter       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	requestSize   *prometheus.HistogramVec
	outcomes      *prometheus.CounterVec
}

func NewOcrMetrics(reg prometheus.Registerer) *OcrMetrics {
	m := &OcrMetrics{
		inFlightGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ocr_in_flight_requests",
			Help: "Number of currently pending and processed requests.",
		}),
		counter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocr_api_requests_total",
				Help: "A counter for requests to the wrapped handler.",
			},
			[]string{"code", "method"},
		),
		// duration is partitioned by the HTTP method and handler. It uses custom
		// buckets based on the expected request duration.
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ocr_request_duration_seconds",
				Help:    "A histogram of latencies for requests.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"handler", "method"},
		),
		requestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ocr_request_size_bytes",
				Help:    "A histogram of request sizes for requests.",
				Buckets: []float64{100, 1500, 5000000, 10000000, 25000000, 50000000},
			},
			[]string{},
		),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ocr_outcomes_total",
				Help: "Handled ocr requests by outcome: ok, validation, download, decode or processing.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.inFlightGauge, m.counter, m.duration, m.requestSize, m.outcomes)
	return m
}

// InstrumentHandler wraps handler to provide prometheus metrics
func (m *OcrMetrics) InstrumentHandler(name string, handler http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(m.inFlightGauge,
		promhttp.InstrumentHandlerDuration(m.duration.MustCurryWith(prometheus.Labels{"handler": name}),
			promhttp.InstrumentHandlerCounter(m.counter,
				promhttp.InstrumentHandlerRequestSize(m.requestSize, handler),
			),
		),
	)
}

func (m *OcrMetrics) observeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}
