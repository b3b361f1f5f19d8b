package medocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageDownloader fetches the image behind an imageUrl
type ImageDownloader struct {
	client   *http.Client
	maxBytes int64
}

func NewImageDownloader(timeout time.Duration, maxBytes int64) *ImageDownloader {
	return &ImageDownloader{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// url2bytes downloads imgUrl. Non 2xx answers are errors, worded like
// "404 Client Error: Not Found for url: http://...".
func (d *ImageDownloader) url2bytes(ctx context.Context, imgUrl string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "medication-ocr/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, req.URL)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(bodyBytes)) > d.maxBytes {
		return nil, errors.Errorf("image is larger than %d bytes", d.maxBytes)
	}

	return bodyBytes, nil

}

func statusError(statusCode int, reqURL *url.URL) error {
	side := "Server"
	if statusCode < 500 {
		side = "Client"
	}
	return errors.Errorf("%d %s Error: %s for url: %s",
		statusCode, side, http.StatusText(statusCode), StripPasswordFromUrl(reqURL))
}

// decodeImage decodes any registered format: png, jpeg, gif, bmp, tiff, webp.
// The header is read first so images claiming more than maxPixels pixels are
// refused before any pixel buffer is allocated. maxPixels <= 0 disables it.
func decodeImage(imgBytes []byte, maxPixels int64) (image.Image, string, error) {
	if len(imgBytes) == 0 {
		return nil, "", errors.New("empty image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, "", err
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, format, errors.Errorf("image of %dx%d pixels exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
	}
	img, format, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, "", err
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, format, errors.New("image has no pixels")
	}
	return img, format, nil
}

// encodePNG is used by engines that take encoded bytes instead of pixels
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// timeTrack used to measure time of selected operations
func timeTrack(start time.Time, operation string, message string, requestID string) {
	elapsed := time.Since(start)
	if requestID == "" {
		log.Info().Str("component", "OCR_UTIL").Dur(operation, elapsed).
			Msg(message)
		return
	}
	log.Info().Str("component", "OCR_UTIL").Dur(operation, elapsed).
		Str("RequestID", requestID).Msg(message)
}

// StripPasswordFromUrl strips passwords from URL
func StripPasswordFromUrl(urlToLog *url.URL) string {

	pass, passSet := urlToLog.User.Password()

	if passSet {
		return strings.Replace(urlToLog.String(), pass+"@", "***@", 1)
	}
	return urlToLog.String()
}

// stripPasswordFromRawUrl is StripPasswordFromUrl for strings that may not parse
func stripPasswordFromRawUrl(rawUrl string) string {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return fmt.Sprintf("<unparseable url, %d chars>", len(rawUrl))
	}
	return StripPasswordFromUrl(u)
}

// checkURL checks if provided string is an absolute URL
func checkURL(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("provided %s URI must be an absolute URL", StripPasswordFromUrl(u))
	}
	return u.String(), nil
}
