package medocr

import (
	"context"
	"image"
	"strings"

	"github.com/pkg/errors"
)

type OcrEngineType int

const (
	EngineTesseract = OcrEngineType(iota)
	EnginePaddle
	EngineMock
)

// OcrEngine turns a decoded image into an ordered list of fragments. It is
// built once at startup and shared by all requests.
type OcrEngine interface {
	Recognize(ctx context.Context, img image.Image) ([]Fragment, error)
	Close() error
}

// NewOcrEngine builds the engine selected in engineConfig
func NewOcrEngine(engineConfig EngineConfig) (OcrEngine, error) {
	switch engineConfig.EngineType {
	case EngineMock:
		return NewMockEngine(), nil
	case EngineTesseract:
		return NewTesseractEngine(engineConfig)
	case EnginePaddle:
		return NewPaddleEngine(engineConfig)
	}
	return nil, errors.Errorf("unknown ocr engine type %d", engineConfig.EngineType)
}

func (e OcrEngineType) String() string {
	switch e {
	case EngineMock:
		return "ENGINE_MOCK"
	case EngineTesseract:
		return "ENGINE_TESSERACT"
	case EnginePaddle:
		return "ENGINE_PADDLE"
	}
	return ""
}

// ParseOcrEngineType accepts the short engine names used in flags and env
func ParseOcrEngineType(s string) (OcrEngineType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TESSERACT", "ENGINE_TESSERACT":
		return EngineTesseract, nil
	case "PADDLE", "PADDLEOCR", "ENGINE_PADDLE":
		return EnginePaddle, nil
	case "MOCK", "ENGINE_MOCK":
		return EngineMock, nil
	}
	return EngineTesseract, errors.Errorf("unexpected ocr engine %q, use tesseract, paddle or mock", s)
}

// Set implements flag.Value
func (e *OcrEngineType) Set(s string) error {
	engineType, err := ParseOcrEngineType(s)
	if err != nil {
		return err
	}
	*e = engineType
	return nil
}

// RecognizeImageBytes decodes imgBytes, normalizes it the way the http
// handlers do and runs engine over it. Used by the cli tools.
func RecognizeImageBytes(ctx context.Context, engine OcrEngine, imgBytes []byte, serverConfig ServerConfig) ([]Fragment, error) {
	img, _, err := decodeImage(imgBytes, serverConfig.MaxImagePixels)
	if err != nil {
		return nil, newDecodeError(err)
	}
	img, err = runPreprocessors(img, newPreprocessorChain(serverConfig.MaxImageSide))
	if err != nil {
		return nil, newProcessingError(err)
	}
	fragments, err := engine.Recognize(ctx, img)
	if err != nil {
		return nil, newProcessingError(err)
	}
	return fragments, nil
}
