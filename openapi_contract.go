package medocr

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/pkg/errors"
)

//go:embed docs/openapi.json
var openapiSpec []byte

// OcrContract validates requests and responses against docs/openapi.json
type OcrContract struct {
	doc    *openapi3.T
	router routers.Router
}

func LoadOcrContract(ctx context.Context) (*OcrContract, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, errors.Wrap(err, "load openapi document")
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, errors.Wrap(err, "validate openapi document")
	}
	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, errors.Wrap(err, "build openapi router")
	}
	return &OcrContract{doc: doc, router: router}, nil
}

// Version is info.version of the embedded document
func (c *OcrContract) Version() string {
	return c.doc.Info.Version
}

func (c *OcrContract) routeInput(req *http.Request) (*openapi3filter.RequestValidationInput, error) {
	route, pathParams, err := c.router.FindRoute(req)
	if err != nil {
		return nil, errors.Wrapf(err, "no route for %s %s", req.Method, req.URL.Path)
	}
	return &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
	}, nil
}

// ValidateRequest checks req, its body is left readable afterwards
func (c *OcrContract) ValidateRequest(ctx context.Context, req *http.Request) error {
	input, err := c.routeInput(req)
	if err != nil {
		return err
	}
	return openapi3filter.ValidateRequest(ctx, input)
}

// ValidateResponse checks a response given to req
func (c *OcrContract) ValidateResponse(ctx context.Context, req *http.Request, status int, header http.Header, body []byte) error {
	input, err := c.routeInput(req)
	if err != nil {
		return err
	}
	responseInput := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 status,
		Header:                 header,
		Body:                   io.NopCloser(bytes.NewReader(body)),
	}
	return openapi3filter.ValidateResponse(ctx, responseInput)
}
