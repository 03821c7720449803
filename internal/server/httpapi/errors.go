package httpapi

import (
	"errors"
	"net/http"

	"github.com/The-GenLab/Lectgen-AI-sub001/internal/common"
	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto an HTTP response. Messages for 4xx
// come straight from the sentinels, which are written to be safe to show;
// anything unrecognized collapses to a generic 500 so internals never leak.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrPasswordTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrReauthRequired):
		// The presented refresh token is dead; stop the client replaying it.
		s.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})

	case errors.Is(err, common.ErrExternalService):
		c.JSON(http.StatusBadGateway, gin.H{"error": "external service unavailable"})

	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

	default:
		s.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
