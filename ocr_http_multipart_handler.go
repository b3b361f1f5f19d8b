package medocr

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
)

const multipartImageField = "image"

// OcrHttpMultipartHandler serves POST /ocr-file-upload, a multipart/form-data
// upload with the image in the "image" field. It shares decode and recognize
// with OcrHttpHandler.
type OcrHttpMultipartHandler struct {
	ocrHandler    *OcrHttpHandler
	maxImageBytes int64
}

func NewOcrHttpMultipartHandler(ocrHandler *OcrHttpHandler, serverConfig ServerConfig) *OcrHttpMultipartHandler {
	return &OcrHttpMultipartHandler{
		ocrHandler:    ocrHandler,
		maxImageBytes: serverConfig.MaxImageBytes,
	}
}

func (s *OcrHttpMultipartHandler) extractImage(w http.ResponseWriter, req *http.Request) ([]byte, error) {
	// room for the multipart framing around the image itself
	req.Body = http.MaxBytesReader(w, req.Body, s.maxImageBytes+1<<20)

	file, header, err := req.FormFile(multipartImageField)
	if err != nil {
		return nil, newValidationError(msgImageFileMissing, err)
	}
	defer file.Close()

	log.Info().Str("component", "OCR_HTTP").
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Str("content_type", header.Header.Get("Content-Type")).
		Msg("request to ocr-file-upload")

	if header.Size > s.maxImageBytes {
		return nil, newValidationError(msgImageFileTooLarge, errors.Errorf("image is larger than %d bytes", s.maxImageBytes))
	}

	partContents, err := io.ReadAll(file)
	if err != nil {
		return nil, newProcessingError(errors.Wrap(err, "failed to read mime part"))
	}
	return partContents, nil
}

func (s *OcrHttpMultipartHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	requestID := ksuid.New().String()
	logger := log.With().Str("component", "OCR_HTTP").Str("RequestID", requestID).Logger()

	imgBytes, err := s.extractImage(w, req)
	if err != nil {
		s.ocrHandler.writeError(w, logger, asOcrError(err))
		return
	}

	ocrResult, err := s.ocrHandler.recognizeBytes(req.Context(), imgBytes, requestID)
	if err != nil {
		s.ocrHandler.writeError(w, logger, asOcrError(err))
		return
	}

	s.ocrHandler.writeResult(w, logger, ocrResult)
}
