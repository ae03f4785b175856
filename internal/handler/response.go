package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/service"
)

// APIResponse is the envelope of the lead listing and health endpoints.
// Search endpoints answer with dto.SearchResponse instead, because the same
// payload is also the final stream event and must carry partial leads on failure.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, APIResponse{Status: "success", Message: message, Data: data})
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, APIResponse{Status: "error", Message: message})
}

// ServiceError maps a lead service failure onto the envelope. fallback is
// shown for unclassified errors so internals never reach the caller.
func ServiceError(c echo.Context, err error, fallback string) error {
	switch {
	case service.IsValidation(err):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPersistenceDisabled):
		return Error(c, http.StatusServiceUnavailable, "lead storage is not configured")
	}
	return Error(c, http.StatusInternalServerError, fallback)
}
