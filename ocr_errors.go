package medocr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// OcrErrorKind classifies the ways a request can fail
type OcrErrorKind int

const (
	ValidationError = OcrErrorKind(iota)
	DownloadError
	DecodeError
	ProcessingError
)

const (
	msgRequestMustBeJSON = "Request must be JSON"
	msgImageUrlMissing   = "imageUrl is missing"
	msgImageFileMissing  = "image file is missing"
	msgImageFileTooLarge = "image file is too large"
	msgCouldNotDecode    = "Could not decode image"
)

func (k OcrErrorKind) String() string {
	switch k {
	case ValidationError:
		return "validation"
	case DownloadError:
		return "download"
	case DecodeError:
		return "decode"
	case ProcessingError:
		return "processing"
	}
	return ""
}

// OcrError carries the kind of failure together with the client facing
// message and the underlying cause.
type OcrError struct {
	Kind OcrErrorKind
	Msg  string
	Err  error
}

func (e *OcrError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OcrError) Unwrap() error {
	return e.Err
}

// Message is the text returned to the client in the "error" field
func (e *OcrError) Message() string {
	switch e.Kind {
	case DownloadError:
		return fmt.Sprintf("Image download failed: %v", e.Err)
	case ProcessingError:
		return fmt.Sprintf("OCR processing error: %v", e.Err)
	}
	return e.Msg
}

// StatusCode maps the kind to the HTTP status answered to the client
func (e *OcrError) StatusCode() int {
	switch e.Kind {
	case ValidationError, DecodeError:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func newValidationError(msg string, err error) *OcrError {
	return &OcrError{Kind: ValidationError, Msg: msg, Err: err}
}

func newDownloadError(err error) *OcrError {
	return &OcrError{Kind: DownloadError, Err: err}
}

func newDecodeError(err error) *OcrError {
	return &OcrError{Kind: DecodeError, Msg: msgCouldNotDecode, Err: err}
}

func newProcessingError(err error) *OcrError {
	return &OcrError{Kind: ProcessingError, Err: err}
}

// asOcrError returns err as *OcrError, anything unclassified is a processing error
func asOcrError(err error) *OcrError {
	var ocrErr *OcrError
	if errors.As(err, &ocrErr) {
		return ocrErr
	}
	return newProcessingError(err)
}
