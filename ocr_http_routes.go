package medocr

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewOcrServeMux wires every endpoint of the service around engine. The
// collectors are registered on reg and exposed from gatherer on /metrics.
func NewOcrServeMux(engine OcrEngine, serverConfig ServerConfig, reg prometheus.Registerer, gatherer prometheus.Gatherer) *http.ServeMux {
	metrics := NewOcrMetrics(reg)
	ocrHandler := NewOcrHttpHandler(engine, serverConfig, metrics)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", NewOcrHttpStatusHandler())
	mux.Handle("POST /ocr", metrics.InstrumentHandler("ocr", ocrHandler))
	mux.Handle("POST /ocr-file-upload",
		metrics.InstrumentHandler("ocr-file-upload", NewOcrHttpMultipartHandler(ocrHandler, serverConfig)))
	// expose metrics for prometheus
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
