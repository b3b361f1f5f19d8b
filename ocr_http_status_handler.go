package medocr

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

const LandingPageText = "Medication OCR API is running!"

// OcrHttpStatusHandler answers GET / so load balancers and humans can see the
// service is up
type OcrHttpStatusHandler struct {
}

func NewOcrHttpStatusHandler() *OcrHttpStatusHandler {
	return &OcrHttpStatusHandler{}
}

func (s *OcrHttpStatusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	log.Debug().Str("component", "OCR_STATUS").Str("remote", req.RemoteAddr).Msg("serveHttp called")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(LandingPageText)); err != nil {
		log.Error().Err(err).Str("component", "OCR_STATUS").Msg("http write() failed")
	}
}
