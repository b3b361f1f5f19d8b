package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	medocr "github.com/medremind/medication-ocr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sends one ocr request to a running server and checks request and response
// against the api contract, eg:
// check_request -server http://localhost:5000 -image_url https://example.com/rx.png

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	var (
		serverURL string
		imageURL  string
		timeout   time.Duration
	)
	flag.StringVar(&serverURL, "server", "http://localhost:5000", "base url of the medication ocr server")
	flag.StringVar(&imageURL, "image_url", "", "imageUrl to send")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "timeout for the whole request")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	contract, err := medocr.LoadOcrContract(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not load api contract")
	}

	body, err := json.Marshal(medocr.OcrRequest{ImgUrl: imageURL})
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not marshal request")
	}

	endpoint := strings.TrimRight(serverURL, "/") + "/ocr"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not build request")
	}
	req.Header.Set("Content-Type", "application/json")

	// an empty imageUrl is sent anyway to check the server's 400 answer
	if err := contract.ValidateRequest(ctx, req); err != nil {
		log.Warn().Err(err).Str("component", "CHECK_REQUEST").Msg("request does not match the contract")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal().Err(err).Str("component", "CHECK_REQUEST").Msg("could not read response")
	}

	fmt.Printf("%d %s\n", resp.StatusCode, respBody)

	if err := contract.ValidateResponse(ctx, req, resp.StatusCode, resp.Header, respBody); err != nil {
		log.Error().Err(err).Str("component", "CHECK_REQUEST").
			Str("contract_version", contract.Version()).
			Msg("response does not match the contract")
		os.Exit(1)
	}
	log.Info().Str("component", "CHECK_REQUEST").
		Str("contract_version", contract.Version()).
		Msg("response matches the contract")
}
