package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/tool"
)

// OnlyAllowLocal rejects requests not coming from the loopback interface. The
// self API reads arbitrary local paths, so it must never be reachable remotely.
func OnlyAllowLocal(c *gin.Context) {
	switch c.ClientIP() {
	case "127.0.0.1", "::1":
		c.Next()
	default:
		tool.ReplyError(c, http.StatusForbidden, "Forbidden")
	}
}
