package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/gophchat-server/internal/apierror"
)

// handleError writes the stable message of err with its status. Anything that
// is not an APIError becomes a 500.
func handleError(c *gin.Context, err error) {
	if apiErr, ok := apierror.As(err); ok {
		c.JSON(apiErr.HTTPCode, gin.H{"success": false, "error": apiErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
}
