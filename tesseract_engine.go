package medocr

import (
	"context"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// TesseractEngine runs tesseract in process through gosseract. A single
// client is created at startup; the client is not safe for concurrent use so
// every call holds mu.
type TesseractEngine struct {
	mu     deadlock.Mutex
	client *gosseract.Client
	level  gosseract.PageIteratorLevel
}

func NewTesseractEngine(engineConfig EngineConfig) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	if len(engineConfig.Languages) > 0 {
		if err := client.SetLanguage(engineConfig.Languages...); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "set tesseract languages")
		}
	}
	if engineConfig.PageSegMode >= 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(engineConfig.PageSegMode)); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "set tesseract page segmentation mode")
		}
	}

	log.Info().Str("component", "OCR_TESSERACT").
		Str("version", gosseract.Version()).
		Strs("languages", engineConfig.Languages).
		Int("psm", engineConfig.PageSegMode).
		Msg("tesseract engine ready")

	return &TesseractEngine{
		client: client,
		level:  gosseract.RIL_TEXTLINE,
	}, nil
}

// Recognize returns one fragment per text line, in reading order
func (t *TesseractEngine) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	// tesseract wants an encoded image, the decoded one is sent as png
	imgBytes, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// the cgo call can't be interrupted, so only check before entering it
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.client.SetImageFromBytes(imgBytes); err != nil {
		return nil, errors.Wrap(err, "set image")
	}
	boxes, err := t.client.GetBoundingBoxes(t.level)
	if err != nil {
		return nil, errors.Wrap(err, "get bounding boxes")
	}

	return FragmentsFromTriples(triplesFromBoundingBoxes(boxes)), nil
}

// triplesFromBoundingBoxes trims the line breaks tesseract leaves on every
// line and drops lines that are blank afterwards.
func triplesFromBoundingBoxes(boxes []gosseract.BoundingBox) []RecognizedTriple {
	triples := make([]RecognizedTriple, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		triples = append(triples, RecognizedTriple{
			Box:        b.Box,
			Text:       text,
			Confidence: b.Confidence / 100.0,
		})
	}
	return triples
}

func (t *TesseractEngine) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
