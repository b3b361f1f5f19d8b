package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	medocr "github.com/medremind/medication-ocr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runs the configured engine over a local image, eg:
// cli-ocr -image prescription.png -engine tesseract -lang eng

func init() {
	zerolog.TimeFieldFormat = time.StampMilli
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	var imagePath string
	flagFunc := func() {
		flag.StringVar(
			&imagePath,
			"image",
			"",
			"path of the image to recognize",
		)
	}

	serverConfig, err := medocr.DefaultConfigFlagsOverride(flagFunc)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_OCR").Msg("invalid configuration")
	}
	if serverConfig.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if imagePath == "" {
		log.Fatal().Str("component", "CLI_OCR").Msg("-image is required")
	}

	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_OCR").Msg("image not found")
	}

	ocrEngine, err := medocr.NewOcrEngine(serverConfig.Engine)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CLI_OCR").Msg("could not load ocr engine")
	}
	defer ocrEngine.Close()

	start := time.Now()
	fragments, err := medocr.RecognizeImageBytes(context.Background(), ocrEngine, imgBytes, serverConfig)
	if err != nil {
		log.Error().Err(err).Str("component", "CLI_OCR").Msg("recognition failed")
		ocrEngine.Close()
		os.Exit(1)
	}

	fmt.Printf("========== OCR RESULT (%s, %v) ==========\n\n", serverConfig.Engine.EngineType, time.Since(start).Round(time.Millisecond))
	for _, f := range fragments {
		fmt.Printf("%s  (conf: %.3f)\n", f.Text, f.Confidence)
	}
	fmt.Printf("\n%s\n", medocr.JoinFragments(fragments))
}
