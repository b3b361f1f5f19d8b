package medocr

import (
	"flag"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type EngineConfig struct {
	EngineType    OcrEngineType
	Languages     []string
	PageSegMode   int
	PaddleURL     string
	PaddleTimeout time.Duration
}

func DefaultEngineConfig() EngineConfig {

	engineConfig := EngineConfig{
		EngineType:    EngineTesseract,
		Languages:     []string{"eng"},
		PageSegMode:   -1, // keep tesseract's own default
		PaddleURL:     "",
		PaddleTimeout: 0,
	}
	return engineConfig

}

// engineConfigFromEnv applies OCR_ENGINE, OCR_LANG, OCR_PSM and PADDLE_OCR_URL
func engineConfigFromEnv(engineConfig EngineConfig) (EngineConfig, error) {
	if engineName := getEnv("OCR_ENGINE", ""); engineName != "" {
		engineType, err := ParseOcrEngineType(engineName)
		if err != nil {
			return engineConfig, err
		}
		engineConfig.EngineType = engineType
	}
	if lang := getEnv("OCR_LANG", ""); lang != "" {
		engineConfig.Languages = splitLanguages(lang)
	}
	engineConfig.PageSegMode = getIntEnv("OCR_PSM", engineConfig.PageSegMode)
	engineConfig.PaddleURL = getEnv("PADDLE_OCR_URL", engineConfig.PaddleURL)
	return engineConfig, nil
}

// registerEngineFlags binds the engine flags to engineConfig. -lang is kept as
// a plus separated string the way tesseract itself takes it, e.g. eng+deu.
func registerEngineFlags(fs *flag.FlagSet, engineConfig *EngineConfig, lang *string) {
	fs.Var(
		&engineConfig.EngineType,
		"engine",
		"ocr engine to load at startup: tesseract, paddle or mock",
	)
	fs.StringVar(
		lang,
		"lang",
		strings.Join(engineConfig.Languages, "+"),
		"tesseract languages, eg: eng or eng+deu",
	)
	fs.IntVar(
		&engineConfig.PageSegMode,
		"psm",
		engineConfig.PageSegMode,
		"tesseract page segmentation mode, -1 keeps the library default",
	)
	fs.StringVar(
		&engineConfig.PaddleURL,
		"paddle_url",
		engineConfig.PaddleURL,
		"PaddleOCR serving endpoint, eg: http://localhost:8080/ocr",
	)
	fs.DurationVar(
		&engineConfig.PaddleTimeout,
		"paddle_timeout",
		engineConfig.PaddleTimeout,
		"timeout for a single PaddleOCR call, 0 disables it",
	)
}

func (c EngineConfig) validate() error {
	if c.EngineType == EnginePaddle && c.PaddleURL == "" {
		return errors.New("paddle engine needs -paddle_url or PADDLE_OCR_URL")
	}
	if c.PageSegMode < -1 || c.PageSegMode > 13 {
		return errors.Errorf("psm must be between 0 and 13, got %d", c.PageSegMode)
	}
	if c.PaddleTimeout < 0 {
		return errors.New("paddle_timeout must not be negative")
	}
	return nil
}

func splitLanguages(lang string) []string {
	var languages []string
	for _, l := range strings.FieldsFunc(lang, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			languages = append(languages, l)
		}
	}
	return languages
}
