package medocr

import (
	"context"
	"image"
)

const MOCK_ENGINE_RESPONSE = "mock engine decoder response"

// MockEngine answers every image with the same fragments or the same error
type MockEngine struct {
	Fragments []Fragment
	Err       error
}

func NewMockEngine() *MockEngine {
	return &MockEngine{Fragments: []Fragment{{Text: MOCK_ENGINE_RESPONSE, Confidence: 1}}}
}

// NewMockEngineWithTexts returns an engine recognizing exactly texts, in order
func NewMockEngineWithTexts(texts ...string) *MockEngine {
	fragments := make([]Fragment, 0, len(texts))
	for _, text := range texts {
		fragments = append(fragments, Fragment{Text: text, Confidence: 1})
	}
	return &MockEngine{Fragments: fragments}
}

func (m *MockEngine) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	fragments := make([]Fragment, len(m.Fragments))
	copy(fragments, m.Fragments)
	return fragments, nil
}

func (m *MockEngine) Close() error {
	return nil
}
