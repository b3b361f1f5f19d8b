package medocr

import (
	"image"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// Preprocessor prepares a decoded image before it is handed to the engine
type Preprocessor interface {
	preprocess(img image.Image) (image.Image, error)
}

// ColorPreprocessor converts paletted, gray and ycbcr images into RGBA so every
// engine sees a three channel colour image.
type ColorPreprocessor struct{}

func (ColorPreprocessor) preprocess(img image.Image) (image.Image, error) {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// ScalePreprocessor shrinks images whose longer side exceeds MaxSide, keeping
// the aspect ratio. Images already small enough are returned untouched.
type ScalePreprocessor struct {
	MaxSide int
}

func (s ScalePreprocessor) preprocess(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longSide := w
	if h > longSide {
		longSide = h
	}
	if s.MaxSide <= 0 || longSide <= s.MaxSide {
		return img, nil
	}

	newW := w * s.MaxSide / longSide
	newH := h * s.MaxSide / longSide
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	log.Debug().Str("component", "OCR_PREPROCESS").
		Int("width", w).Int("height", h).
		Int("new_width", newW).Int("new_height", newH).
		Msg("downscaling image")

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst, nil
}

// newPreprocessorChain returns the preprocessors applied to every image
func newPreprocessorChain(maxImageSide int) []Preprocessor {
	chain := []Preprocessor{ColorPreprocessor{}}
	if maxImageSide > 0 {
		chain = append(chain, ScalePreprocessor{MaxSide: maxImageSide})
	}
	return chain
}

func runPreprocessors(img image.Image, chain []Preprocessor) (image.Image, error) {
	var err error
	for _, p := range chain {
		img, err = p.preprocess(img)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}
