package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beaconhq/beacon-backend/internal/engine"
	"github.com/beaconhq/beacon-backend/internal/observability"
	"github.com/beaconhq/beacon-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	observability.Current().IncAPIRequest(c.FullPath(), c.Request.Method, status)
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	observability.Current().IncAPIRequest(c.FullPath(), c.Request.Method, http.StatusOK)
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	observability.Current().IncAPIRequest(c.FullPath(), c.Request.Method, http.StatusCreated)
	c.JSON(http.StatusCreated, payload)
}

// RespondFromError maps the service-layer error taxonomy onto HTTP statuses.
func RespondFromError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	switch {
	case errors.As(err, &apiErr):
		RespondError(c, apiErr.Status, apiErr.Code, err)
	case errors.Is(err, engine.ErrValidation):
		RespondError(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, engine.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, engine.ErrState):
		RespondError(c, http.StatusConflict, "invalid_state", err)
	case errors.Is(err, engine.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
