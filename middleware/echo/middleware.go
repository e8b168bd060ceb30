package echomw

import (
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/middleware"
)

// ValidateJSON decodes the request body into T, validates it with eng, and
// stores the value in the request context on success; violations return 400
// with the error payload.
func ValidateJSON[T any](eng *fieldcheck.Engine, opts ...fieldcheck.ValidateOption) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			var body T
			if err := json.Unmarshal(data, &body); err != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload([]fieldcheck.ApiError{{
					Code:     fieldcheck.CodeType,
					Message:  err.Error(),
					Location: fieldcheck.LocationBody,
				}}))
			}
			errs, err := eng.Validate(c.Request().Context(), &body, opts...)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]any{"error": err.Error()})
			}
			if len(errs) > 0 {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(errs))
			}
			ctx := middleware.ContextWithValidated(c.Request().Context(), body)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetValidated fetches the validated body from echo.Context.
func GetValidated[T any](c echo.Context) (T, bool) {
	return middleware.ValidatedFromContext[T](c.Request().Context())
}
