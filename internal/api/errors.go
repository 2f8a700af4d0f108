package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"incubatorhub/internal/service/grant"
)

// writeError maps the engine error taxonomy onto HTTP status codes.
// Unclassified errors stay opaque to the client.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, grant.ErrInvalidAmount),
		errors.Is(err, grant.ErrInvalidStatus),
		errors.Is(err, grant.ErrInvalidPeriod),
		errors.Is(err, grant.ErrSanctionExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, grant.ErrGrantNotFound),
		errors.Is(err, grant.ErrDisbursementNotFound),
		errors.Is(err, grant.ErrMilestoneNotFound),
		errors.Is(err, grant.ErrStartupNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, grant.ErrReleasedImmutable),
		errors.Is(err, grant.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
