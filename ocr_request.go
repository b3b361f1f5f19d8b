package medocr

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// OcrRequest is the body accepted by the /ocr endpoint
type OcrRequest struct {
	ImgUrl    string `json:"imageUrl"`
	RequestID string `json:"-"`
}

// OcrResult is written back to the client on success. Text is never omitted,
// an image without any recognized text yields "text": "".
type OcrResult struct {
	Text string `json:"text"`
}

// OcrErrorResult is written back to the client on any failure
type OcrErrorResult struct {
	Error string `json:"error"`
}

// decodeOcrRequest reads a single JSON object from the body. An empty body,
// a literal null or anything other than an object is rejected.
func decodeOcrRequest(body io.Reader) (OcrRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return OcrRequest{}, errors.Wrap(err, "read request body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return OcrRequest{}, errors.New("request body is not a JSON object")
	}

	var ocrRequest *OcrRequest
	if err := json.Unmarshal(raw, &ocrRequest); err != nil {
		return OcrRequest{}, errors.Wrap(err, "unmarshal request body")
	}
	if ocrRequest == nil {
		return OcrRequest{}, errors.New("request body is null")
	}
	return *ocrRequest, nil
}
