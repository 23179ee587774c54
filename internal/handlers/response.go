package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
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
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service-layer sentinel errors onto HTTP
// statuses.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperrors.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, apperrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
	case errors.Is(err, apperrors.ErrEmptyDocument):
		RespondError(c, http.StatusUnprocessableEntity, "empty_document", err)
	case errors.Is(err, apperrors.ErrExtraction):
		RespondError(c, http.StatusBadGateway, "extraction_failed", err)
	case errors.Is(err, apperrors.ErrPersistence):
		RespondError(c, http.StatusInternalServerError, "persistence_failed", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
