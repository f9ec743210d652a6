package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/triage/pkg/runner"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// requestValidator checks API requests against the OpenAPI document before they reach
// a handler.
type requestValidator struct {
	doc    *openapi3.T
	router routers.Router
}

func newRequestValidator(ctx context.Context, spec []byte) (*requestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &requestValidator{doc: doc, router: router}, nil
}

// Version reports the API version declared by the document.
func (v *requestValidator) Version() string {
	if v.doc.Info == nil {
		return "unknown"
	}
	return v.doc.Info.Version
}

func (v *requestValidator) validate(r *http.Request) error {
	route, pathParams, err := v.router.FindRoute(r)
	if err != nil {
		// Undocumented routes fall through to the mux, which answers 404/405.
		return nil
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}

func (v *requestValidator) middleware(onError func(http.ResponseWriter, int, error, *runner.RichResponse)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := v.validate(r); err != nil {
				onError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
