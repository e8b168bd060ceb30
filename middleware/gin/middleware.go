package ginmw

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/middleware"
)

// ValidateJSON decodes the incoming JSON body into T, validates it with
// eng, stores the value in the request context, and on violations returns
// 400 with the error payload.
func ValidateJSON[T any](eng *fieldcheck.Engine, opts ...fieldcheck.ValidateOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		var body T
		if err := json.Unmarshal(data, &body); err != nil {
			c.JSON(http.StatusBadRequest, middleware.ErrorPayload([]fieldcheck.ApiError{{
				Code:     fieldcheck.CodeType,
				Message:  err.Error(),
				Location: fieldcheck.LocationBody,
			}}))
			c.Abort()
			return
		}
		errs, err := eng.Validate(c.Request.Context(), &body, opts...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, middleware.ErrorPayload(errs))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithValidated(c.Request.Context(), body))
		c.Next()
	}
}

// ValidateSections validates request query parameters and headers against
// their schemas; use it for endpoints without a body.
func ValidateSections(eng *fieldcheck.Engine, query, header *fieldcheck.Schema, opts ...fieldcheck.ValidateOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		sections := map[fieldcheck.Location]fieldcheck.Section{}
		if query != nil {
			sections[fieldcheck.LocationQuery] = fieldcheck.Section{Value: middleware.QuerySection(c.Request), Schema: query}
		}
		if header != nil {
			sections[fieldcheck.LocationHeader] = fieldcheck.Section{Value: middleware.HeaderSection(c.Request), Schema: header}
		}
		errs, err := eng.ValidateSections(c.Request.Context(), sections, opts...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if len(errs) > 0 {
			c.JSON(http.StatusBadRequest, middleware.ErrorPayload(errs))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetValidated fetches the validated body from gin.Context.
func GetValidated[T any](c *gin.Context) (T, bool) {
	return middleware.ValidatedFromContext[T](c.Request.Context())
}
