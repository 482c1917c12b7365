package v1

import (
	"errors"

	"github.com/craftsite-simple/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error to the HTTP status for its kind. The
// message is the short human-readable summary; raw upstream payloads never
// reach the client.
func respondError(c *gin.Context, err error) {
	message := "Internal server error"
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(utils.StatusCode(err), gin.H{
		"status":  "error",
		"message": message,
	})
}
