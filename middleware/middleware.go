// Package middleware holds framework-agnostic helpers shared by the HTTP
// adapters under middleware/gin and middleware/echo.
package middleware

import (
	"context"
	"net/http"

	fieldcheck "github.com/reoring/fieldcheck"
)

// ctxKeyValidated is a typed context key for storing the validated body.
// Using a generic struct type ensures uniqueness per T.
type ctxKeyValidated[T any] struct{}

// ContextWithValidated attaches a validated body value to the context.
func ContextWithValidated[T any](ctx context.Context, v T) context.Context {
	return context.WithValue(ctx, ctxKeyValidated[T]{}, v)
}

// ValidatedFromContext retrieves a validated body value from context.
func ValidatedFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyValidated[T]{}).(T)
	return v, ok
}

// ErrorPayload shapes validation errors for JSON responses.
func ErrorPayload(errs []fieldcheck.ApiError) map[string]any {
	return map[string]any{"errors": errs}
}

// QuerySection flattens request query parameters into the map shape the
// engine validates against (first value wins, matching net/http precedence).
func QuerySection(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// HeaderSection flattens request headers into a validatable map.
func HeaderSection(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, vs := range r.Header {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
