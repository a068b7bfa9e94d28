package httpadapter

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Path       string `json:"path"`
	Timestamp  string `json:"timestamp"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// statusFor maps a failure class to its HTTP status and client-facing message.
// Upstream and internal details stay in the logs.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Address not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrUnresolvable):
		return http.StatusUnprocessableEntity, "Geocoding returned no usable coordinates for this address"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "Upstream provider unavailable"
	case errors.Is(err, domain.ErrUnexpectedUpstream):
		return http.StatusBadGateway, "Upstream provider returned an unexpected response"
	default:
		// ErrConfiguration, ErrInternal, and anything unclassified.
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"kind", domain.Kind(err),
			"error", err,
		)
	}
	writeMessage(c, status, message)
}

func writeMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		StatusCode: status,
		Path:       c.Request.URL.Path,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Error:      http.StatusText(status),
		Message:    message,
	})
}
