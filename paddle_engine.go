package medocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const paddleFileTypeImage = 1

// PaddleEngine sends the image to a PaddleOCR serving endpoint and flattens
// the rec_texts of every returned block.
type PaddleEngine struct {
	url    string
	client *http.Client
}

type paddleRequest struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`
}

type paddleResponse struct {
	LogID     string `json:"logId"`
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Result    struct {
		OcrResults []struct {
			PrunedResult RecognizedBlock `json:"prunedResult"`
		} `json:"ocrResults"`
	} `json:"result"`
}

func NewPaddleEngine(engineConfig EngineConfig) (*PaddleEngine, error) {
	if engineConfig.PaddleURL == "" {
		return nil, errors.New("paddle engine needs a serving url")
	}
	if _, err := checkURL(engineConfig.PaddleURL); err != nil {
		return nil, errors.Wrap(err, "paddle serving url")
	}

	log.Info().Str("component", "OCR_PADDLE").
		Str("url", stripPasswordFromRawUrl(engineConfig.PaddleURL)).
		Dur("timeout", engineConfig.PaddleTimeout).
		Msg("paddle engine ready")

	return &PaddleEngine{
		url:    engineConfig.PaddleURL,
		client: &http.Client{Timeout: engineConfig.PaddleTimeout},
	}, nil
}

func (p *PaddleEngine) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	imgBytes, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	reqJson, err := json.Marshal(paddleRequest{
		File:     base64.StdEncoding.EncodeToString(imgBytes),
		FileType: paddleFileTypeImage,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(reqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "medication-ocr/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "paddle request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read paddle response")
	}

	var paddleResp paddleResponse
	if err := json.Unmarshal(body, &paddleResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("paddle serving answered %d: %s", resp.StatusCode, truncate(string(body), 200))
		}
		return nil, errors.Wrap(err, "unmarshal paddle response")
	}
	if resp.StatusCode != http.StatusOK || paddleResp.ErrorCode != 0 {
		return nil, errors.Errorf("paddle serving error %d: %s", paddleResp.ErrorCode, paddleResp.ErrorMsg)
	}

	blocks := make([]RecognizedBlock, 0, len(paddleResp.Result.OcrResults))
	for _, r := range paddleResp.Result.OcrResults {
		blocks = append(blocks, r.PrunedResult)
	}

	log.Debug().Str("component", "OCR_PADDLE").
		Str("logId", paddleResp.LogID).
		Int("blocks", len(blocks)).
		Msg("paddle response")

	return FragmentsFromBlocks(blocks), nil
}

func (p *PaddleEngine) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
