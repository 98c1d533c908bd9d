package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/treasurypulse/internal/domain/dto"
	"github.com/guttosm/treasurypulse/internal/logger"
)

// ErrorHandler turns errors attached to the Gin context by handlers into a
// standardized 500 response, when no handler wrote a response body itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := c.Errors.Last().Err
	rid, _ := c.Get(RequestIDKey)
	logger.L().Error().
		Str("request_id", toString(rid)).
		Err(err).
		Msg("unhandled request error")

	c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", err))
}

// AbortWithError logs the error and writes a standardized error body with the
// given status code.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	logger.L().Error().Int("status", status).Err(err).Msg(message)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
