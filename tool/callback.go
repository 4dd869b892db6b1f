package tool

import (
	"maps"

	"github.com/gin-gonic/gin"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}

func FastReturnErrorWithData(msg string, data map[string]any) gin.H {
	resp := FastReturnError(msg)
	maps.Copy(resp, data)
	return resp
}

// ReplyError logs the failure at warn level and writes {"error": msg}.
func ReplyError(c *gin.Context, code int, msg string) {
	DefaultLogger.Warnf("%s %s -> %d: %s", c.Request.Method, c.Request.URL.Path, code, msg)
	c.AbortWithStatusJSON(code, FastReturnError(msg))
}
