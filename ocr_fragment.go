package medocr

import (
	"image"
	"strings"
)

// Fragment is one piece of recognized text as reported by an engine. Only Text
// makes it into the response, Confidence and Box are kept for logging and the
// smoke test cli.
type Fragment struct {
	Text       string
	Confidence float64
	Box        image.Rectangle
}

// RecognizedBlock is the block shape produced by PaddleOCR pipelines: parallel
// lists of texts and scores.
type RecognizedBlock struct {
	RecTexts  []string  `json:"rec_texts"`
	RecScores []float64 `json:"rec_scores"`
}

// RecognizedTriple is the (box, text, confidence) shape produced by line level
// detectors such as tesseract bounding boxes.
type RecognizedTriple struct {
	Box        image.Rectangle
	Text       string
	Confidence float64
}

// FragmentsFromBlocks flattens rec_texts of every block in order. A missing
// score leaves the confidence at zero.
func FragmentsFromBlocks(blocks []RecognizedBlock) []Fragment {
	var fragments []Fragment
	for _, block := range blocks {
		for i, text := range block.RecTexts {
			fragment := Fragment{Text: text}
			if i < len(block.RecScores) {
				fragment.Confidence = block.RecScores[i]
			}
			fragments = append(fragments, fragment)
		}
	}
	return fragments
}

// FragmentsFromTriples keeps the order of the triples and drops nothing
func FragmentsFromTriples(triples []RecognizedTriple) []Fragment {
	fragments := make([]Fragment, 0, len(triples))
	for _, t := range triples {
		fragments = append(fragments, Fragment{
			Text:       t.Text,
			Confidence: t.Confidence,
			Box:        t.Box,
		})
	}
	return fragments
}

// JoinFragments space joins the fragment texts in engine order
func JoinFragments(fragments []Fragment) string {
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		texts = append(texts, f.Text)
	}
	return strings.Join(texts, " ")
}
