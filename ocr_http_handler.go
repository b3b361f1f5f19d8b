package medocr

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

// the /ocr body only carries a url
const maxOcrRequestBytes = 1 << 20

// OcrHttpHandler serves POST /ocr: download the image behind imageUrl, decode
// it, run the engine and answer with the space joined text.
type OcrHttpHandler struct {
	engine        OcrEngine
	downloader    *ImageDownloader
	preprocessors []Preprocessor
	maxPixels     int64
	metrics       *OcrMetrics
}

// NewOcrHttpHandler takes the engine built at startup. metrics may be nil.
func NewOcrHttpHandler(engine OcrEngine, serverConfig ServerConfig, metrics *OcrMetrics) *OcrHttpHandler {
	return &OcrHttpHandler{
		engine:        engine,
		downloader:    NewImageDownloader(serverConfig.DownloadTimeout, serverConfig.MaxImageBytes),
		preprocessors: newPreprocessorChain(serverConfig.MaxImageSide),
		maxPixels:     serverConfig.MaxImagePixels,
		metrics:       metrics,
	}
}

func (s *OcrHttpHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	requestID := ksuid.New().String()
	logger := log.With().Str("component", "OCR_HTTP").Str("RequestID", requestID).Logger()
	logger.Info().Msg("serveHttp called")

	req.Body = http.MaxBytesReader(w, req.Body, maxOcrRequestBytes)
	ocrRequest, err := decodeOcrRequest(req.Body)
	if err != nil {
		s.writeError(w, logger, newValidationError(msgRequestMustBeJSON, err))
		return
	}
	ocrRequest.RequestID = requestID

	ocrResult, err := s.HandleOcrRequest(req.Context(), ocrRequest)
	if err != nil {
		s.writeError(w, logger, asOcrError(err))
		return
	}

	s.writeResult(w, logger, ocrResult)
}

// HandleOcrRequest runs the download, decode and recognize steps for one request
func (s *OcrHttpHandler) HandleOcrRequest(ctx context.Context, ocrRequest OcrRequest) (OcrResult, error) {
	if ocrRequest.ImgUrl == "" {
		return OcrResult{}, newValidationError(msgImageUrlMissing, nil)
	}

	log.Info().Str("component", "OCR_HTTP").Str("RequestID", ocrRequest.RequestID).
		Str("imageUrl", stripPasswordFromRawUrl(ocrRequest.ImgUrl)).
		Msg("downloading image")

	start := time.Now()
	imgBytes, err := s.downloader.url2bytes(ctx, ocrRequest.ImgUrl)
	if err != nil {
		return OcrResult{}, newDownloadError(err)
	}
	timeTrack(start, "download", "image downloaded", ocrRequest.RequestID)

	return s.recognizeBytes(ctx, imgBytes, ocrRequest.RequestID)
}

// recognizeBytes decodes imgBytes and runs the engine. A panic inside the
// engine is turned into a processing error so the server keeps serving.
func (s *OcrHttpHandler) recognizeBytes(ctx context.Context, imgBytes []byte, requestID string) (ocrResult OcrResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "OCR_HTTP").Str("RequestID", requestID).
				Interface("panic", r).Msg("ocr engine panicked")
			ocrResult, err = OcrResult{}, newProcessingError(fmt.Errorf("%v", r))
		}
	}()

	img, format, err := decodeImage(imgBytes, s.maxPixels)
	if err != nil {
		return OcrResult{}, newDecodeError(err)
	}
	bounds := img.Bounds()
	log.Debug().Str("component", "OCR_HTTP").Str("RequestID", requestID).
		Str("format", format).Int("width", bounds.Dx()).Int("height", bounds.Dy()).
		Msg("image decoded")

	img, err = runPreprocessors(img, s.preprocessors)
	if err != nil {
		return OcrResult{}, newProcessingError(err)
	}

	fragments, err := s.recognize(ctx, img, requestID)
	if err != nil {
		return OcrResult{}, newProcessingError(err)
	}

	return OcrResult{Text: JoinFragments(fragments)}, nil
}

func (s *OcrHttpHandler) recognize(ctx context.Context, img image.Image, requestID string) ([]Fragment, error) {
	defer timeTrack(time.Now(), "recognize", "ocr engine finished", requestID)
	fragments, err := s.engine.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("component", "OCR_HTTP").Str("RequestID", requestID).
		Int("fragments", len(fragments)).Msg("fragments recognized")
	return fragments, nil
}

func (s *OcrHttpHandler) writeResult(w http.ResponseWriter, logger zerolog.Logger, ocrResult OcrResult) {
	s.metrics.observeOutcome(outcomeOK)
	logger.Info().Int("text_len", len(ocrResult.Text)).Msg("ocr request done")
	writeJSON(w, logger, http.StatusOK, ocrResult)
}

func (s *OcrHttpHandler) writeError(w http.ResponseWriter, logger zerolog.Logger, ocrErr *OcrError) {
	s.metrics.observeOutcome(ocrErr.Kind.String())
	event := logger.Warn()
	if ocrErr.StatusCode() >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(ocrErr).Str("kind", ocrErr.Kind.String()).Msg("ocr request failed")
	writeJSON(w, logger, ocrErr.StatusCode(), OcrErrorResult{Error: ocrErr.Message()})
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		logger.Error().Err(err).Msg("http write() failed")
	}
}
