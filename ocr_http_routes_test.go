package medocr

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchbaselabs/go.assert"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testOcrServer struct {
	*httptest.Server
	registry *prometheus.Registry
}

func newTestOcrServer(t *testing.T, engine OcrEngine) testOcrServer {
	registry := prometheus.NewRegistry()
	mux := NewOcrServeMux(engine, serverConfigForTests(), registry, registry)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return testOcrServer{Server: server, registry: registry}
}

func multipartBody(t *testing.T, field string, filename string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		assert.True(t, err == nil)
		_, err = part.Write(content)
		assert.True(t, err == nil)
	} else {
		assert.True(t, writer.WriteField("note", "no image here") == nil)
	}
	assert.True(t, writer.Close() == nil)
	return body, writer.FormDataContentType()
}

func readAll(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.True(t, err == nil)
	return string(body)
}

func TestOcrServeMuxLandingPage(t *testing.T) {
	server := newTestOcrServer(t, NewMockEngine())

	resp, err := http.Get(server.URL + "/")
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusOK)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
	assert.Equals(t, readAll(t, resp), "Medication OCR API is running!")

	resp, err = http.Get(server.URL + "/favicon.ico")
	assert.True(t, err == nil)
	readAll(t, resp)
	assert.Equals(t, resp.StatusCode, http.StatusNotFound)
}

func TestOcrServeMuxMethods(t *testing.T) {
	server := newTestOcrServer(t, NewMockEngine())

	resp, err := http.Get(server.URL + "/ocr")
	assert.True(t, err == nil)
	readAll(t, resp)
	assert.Equals(t, resp.StatusCode, http.StatusMethodNotAllowed)

	resp, err = http.Post(server.URL+"/", "application/json", strings.NewReader(`{}`))
	assert.True(t, err == nil)
	readAll(t, resp)
	assert.Equals(t, resp.StatusCode, http.StatusMethodNotAllowed)
}

func TestOcrServeMuxOcr(t *testing.T) {
	images := imageServer(t, http.StatusOK, testImageBytes(t))
	server := newTestOcrServer(t, NewMockEngineWithTexts("Tab", "Azithral", "500"))

	resp, err := http.Post(server.URL+"/ocr", "application/json", strings.NewReader(imageUrlBody(images.URL)))
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusOK)
	assert.Equals(t, readAll(t, resp), `{"text":"Tab Azithral 500"}`)

	// the content type header is not required
	resp, err = http.Post(server.URL+"/ocr", "text/plain", strings.NewReader(imageUrlBody(images.URL)))
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusOK)
	readAll(t, resp)
}

func TestOcrServeMuxFileUpload(t *testing.T) {
	server := newTestOcrServer(t, NewMockEngineWithTexts("Cap", "Omez", "20"))

	body, contentType := multipartBody(t, "image", "rx.png", testImageBytes(t))
	resp, err := http.Post(server.URL+"/ocr-file-upload", contentType, body)
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusOK)
	assert.Equals(t, readAll(t, resp), `{"text":"Cap Omez 20"}`)

	body, contentType = multipartBody(t, "", "", nil)
	resp, err = http.Post(server.URL+"/ocr-file-upload", contentType, body)
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusBadRequest)
	assert.Equals(t, readAll(t, resp), `{"error":"image file is missing"}`)

	resp, err = http.Post(server.URL+"/ocr-file-upload", "application/json", strings.NewReader(`{}`))
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusBadRequest)
	assert.Equals(t, readAll(t, resp), `{"error":"image file is missing"}`)

	body, contentType = multipartBody(t, "image", "rx.txt", []byte("hello"))
	resp, err = http.Post(server.URL+"/ocr-file-upload", contentType, body)
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusBadRequest)
	assert.Equals(t, readAll(t, resp), `{"error":"Could not decode image"}`)
}

func TestOcrMultipartHandlerTooLarge(t *testing.T) {
	imgBytes := testImageBytes(t)
	serverConfig := serverConfigForTests()
	serverConfig.MaxImageBytes = int64(len(imgBytes) - 1)
	ocrHandler := NewOcrHttpHandler(NewMockEngine(), serverConfig, nil)
	handler := NewOcrHttpMultipartHandler(ocrHandler, serverConfig)

	body, contentType := multipartBody(t, "image", "rx.png", imgBytes)
	req := httptest.NewRequest(http.MethodPost, "/ocr-file-upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equals(t, rec.Code, http.StatusBadRequest)
	assert.Equals(t, rec.Body.String(), `{"error":"image file is too large"}`)
}

func TestOcrServeMuxMetrics(t *testing.T) {
	images := imageServer(t, http.StatusOK, testImageBytes(t))
	server := newTestOcrServer(t, NewMockEngine())

	for _, body := range []string{imageUrlBody(images.URL), imageUrlBody(images.URL), `{}`, "nope"} {
		resp, err := http.Post(server.URL+"/ocr", "application/json", strings.NewReader(body))
		assert.True(t, err == nil)
		readAll(t, resp)
	}

	expected := `
# HELP ocr_outcomes_total Handled ocr requests by outcome: ok, validation, download, decode or processing.
# TYPE ocr_outcomes_total counter
ocr_outcomes_total{outcome="ok"} 2
ocr_outcomes_total{outcome="validation"} 2
`
	err := testutil.GatherAndCompare(server.registry, strings.NewReader(expected), "ocr_outcomes_total")
	assert.True(t, err == nil)

	resp, err := http.Get(server.URL + "/metrics")
	assert.True(t, err == nil)
	assert.Equals(t, resp.StatusCode, http.StatusOK)
	metricsText := readAll(t, resp)
	assert.True(t, strings.Contains(metricsText, `ocr_api_requests_total{code="200",method="post"} 2`))
	assert.True(t, strings.Contains(metricsText, `ocr_api_requests_total{code="400",method="post"} 2`))
	assert.True(t, strings.Contains(metricsText, "ocr_request_duration_seconds_bucket"))
}

func TestOcrServeMuxMatchesContract(t *testing.T) {
	ctx := context.Background()
	contract, err := LoadOcrContract(ctx)
	assert.True(t, err == nil)
	assert.Equals(t, contract.Version(), "1.0.0")

	images := imageServer(t, http.StatusOK, testImageBytes(t))
	notFound := imageServer(t, http.StatusNotFound, nil)
	server := newTestOcrServer(t, NewMockEngineWithTexts("Shelcal", "500"))

	bodies := []string{
		imageUrlBody(images.URL),
		imageUrlBody(notFound.URL),
		`{"imageUrl":""}`,
		"not json",
	}
	expectedCodes := []int{http.StatusOK, http.StatusInternalServerError, http.StatusBadRequest, http.StatusBadRequest}

	for i, body := range bodies {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, server.URL+"/ocr", strings.NewReader(body))
		assert.True(t, err == nil)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		assert.True(t, err == nil)
		respBody := readAll(t, resp)
		assert.Equals(t, resp.StatusCode, expectedCodes[i])

		err = contract.ValidateResponse(ctx, req, resp.StatusCode, resp.Header, []byte(respBody))
		assert.True(t, err == nil)
	}

	valid, _ := http.NewRequest(http.MethodPost, server.URL+"/ocr", strings.NewReader(imageUrlBody(images.URL)))
	valid.Header.Set("Content-Type", "application/json")
	assert.True(t, contract.ValidateRequest(ctx, valid) == nil)

	invalid, _ := http.NewRequest(http.MethodPost, server.URL+"/ocr", strings.NewReader(`{"imageUrl":""}`))
	invalid.Header.Set("Content-Type", "application/json")
	assert.True(t, contract.ValidateRequest(ctx, invalid) != nil)

	resp, err := http.Get(server.URL + "/")
	assert.True(t, err == nil)
	respBody := readAll(t, resp)
	status, _ := http.NewRequest(http.MethodGet, server.URL+"/", nil)
	assert.True(t, contract.ValidateResponse(ctx, status, resp.StatusCode, resp.Header, []byte(respBody)) == nil)

	unknown, _ := http.NewRequest(http.MethodGet, server.URL+"/metrics", nil)
	assert.True(t, contract.ValidateRequest(ctx, unknown) != nil)
}
