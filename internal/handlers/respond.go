package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agrodesk/genfin_backend/internal/apperrors"
	"github.com/agrodesk/genfin_backend/internal/middleware"
)

// actorIDHeader names the caller performing the mutation, recorded in the
// audit columns. Defaults to "system" when absent.
const actorIDHeader = "X-Actor-ID"

func getActorID(c *gin.Context) string {
	if actor := c.GetHeader(actorIDHeader); actor != "" {
		return actor
	}
	return "system"
}

// respondError maps engine errors onto HTTP statuses:
// not-found -> 404, busy -> 409, business-rule rejections -> 422,
// validation -> 400, everything else -> 500. The stable error kind rides
// along so clients can branch without parsing messages.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind := apperrors.Kind(err)

	var status int
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrResourceBusy):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrDuplicate):
		status = http.StatusConflict
	case apperrors.IsBusinessError(err):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "internal error", "kind": kind})
		return
	}

	logger.Warn("Request rejected", slog.String("kind", kind), slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format", "kind": "Validation"})
		return false
	}
	return true
}
