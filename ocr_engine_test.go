package medocr

import (
	"context"
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/couchbaselabs/go.assert"
	"github.com/rs/zerolog/log"
)

func TestParseOcrEngineType(t *testing.T) {

	names := map[string]OcrEngineType{
		"tesseract":        EngineTesseract,
		"ENGINE_TESSERACT": EngineTesseract,
		" paddle ":         EnginePaddle,
		"PaddleOCR":        EnginePaddle,
		"mock":             EngineMock,
	}

	for name, expected := range names {
		engineType, err := ParseOcrEngineType(name)
		assert.True(t, err == nil)
		assert.Equals(t, engineType, expected)
		log.Info().Str("component", "TEST").Str("engine", engineType.String()).Msg(name)
	}

	// unknown names are refused, never mapped to the mock engine
	for _, name := range []string{"cuneiform", "", "2"} {
		_, err := ParseOcrEngineType(name)
		assert.True(t, err != nil)
	}

}

func TestOcrEngineTypeFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	engineType := EngineTesseract
	fs.Var(&engineType, "engine", "")

	assert.True(t, fs.Parse([]string{"-engine", "Paddle"}) == nil)
	assert.Equals(t, engineType, EnginePaddle)
	assert.Equals(t, engineType.String(), "ENGINE_PADDLE")

	assert.True(t, fs.Parse([]string{"-engine", "easyocr"}) != nil)
	assert.Equals(t, engineType, EnginePaddle)
}

func TestNewOcrEngine(t *testing.T) {
	engineConfig := DefaultEngineConfig()
	engineConfig.EngineType = EngineMock
	engine, err := NewOcrEngine(engineConfig)
	assert.True(t, err == nil)
	_, isMock := engine.(*MockEngine)
	assert.True(t, isMock)
	assert.True(t, engine.Close() == nil)

	engineConfig.EngineType = OcrEngineType(42)
	_, err = NewOcrEngine(engineConfig)
	assert.True(t, err != nil)
	assert.Equals(t, engineConfig.EngineType.String(), "")
}

func TestMockEngine(t *testing.T) {
	engine := NewMockEngine()
	fragments, err := engine.Recognize(context.Background(), nil)
	assert.True(t, err == nil)
	assert.Equals(t, JoinFragments(fragments), MOCK_ENGINE_RESPONSE)

	// callers may not change what the engine answers next time
	fragments[0].Text = "changed"
	fragments, _ = engine.Recognize(context.Background(), nil)
	assert.Equals(t, fragments[0].Text, MOCK_ENGINE_RESPONSE)

	engine = &MockEngine{Err: errors.New("no model")}
	fragments, err = engine.Recognize(context.Background(), nil)
	assert.True(t, err != nil)
	assert.Equals(t, len(fragments), 0)
}

func TestRecognizeImageBytes(t *testing.T) {
	engine := NewMockEngineWithTexts("Ecosprin", "75")
	fragments, err := RecognizeImageBytes(context.Background(), engine, testImageBytes(t), DefaultServerConfig())
	assert.True(t, err == nil)
	assert.Equals(t, JoinFragments(fragments), "Ecosprin 75")

	_, err = RecognizeImageBytes(context.Background(), engine, []byte("GIF89a broken"), DefaultServerConfig())
	assert.True(t, err != nil)
	assert.Equals(t, asOcrError(err).Kind, DecodeError)

	engine.Err = errors.New("engine down")
	_, err = RecognizeImageBytes(context.Background(), engine, testImageBytes(t), DefaultServerConfig())
	assert.Equals(t, asOcrError(err).Kind, ProcessingError)
	assert.Equals(t, asOcrError(err).Message(), "OCR processing error: engine down")
}
