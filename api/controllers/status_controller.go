package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserStatus reports that the service is up and how many pages are connected.
// GET /api/self/v1/status
func UserStatus(pages func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"running": true,
			"pages":   pages(),
		})
	}
}
