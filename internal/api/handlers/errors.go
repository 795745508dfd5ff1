package routes

import (
	"errors"
	"net/http"

	"geoclaim/internal/errs"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidCoordinates):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrNoPosition):
		return http.StatusPreconditionFailed
	case errors.Is(err, errs.ErrOutOfRange),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrClaimInProgress),
		errors.Is(err, errs.ErrSessionExpired),
		errors.Is(err, errs.ErrVerificationFailed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": "internal"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
