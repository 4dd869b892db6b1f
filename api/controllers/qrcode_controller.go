package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/reasonableperson/etrial-manager/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

type qrRequest struct {
	Data string `form:"data" binding:"required"`
	Size string `form:"size"` // "200" or "200x200"
}

// GenerateQRCode renders data, e.g. a document link, as a PNG QR code.
// GET /api/self/v1/create-qr-code?size=200x200&data=<url-encoded-content>
func GenerateQRCode(c *gin.Context) {
	var req qrRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		tool.ReplyError(c, http.StatusBadRequest, "Missing required parameter: data")
		return
	}
	png, err := qrcode.Encode(req.Data, qrcode.Medium, qrSize(req.Size))
	if err != nil {
		tool.ReplyError(c, http.StatusInternalServerError, "Failed to encode QR code: "+err.Error())
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// qrSize clamps the requested edge length to (0, maxQRSize].
func qrSize(s string) int {
	side, _, _ := strings.Cut(strings.TrimSpace(s), "x")
	n, err := strconv.Atoi(strings.TrimSpace(side))
	switch {
	case err != nil || n <= 0:
		return defaultQRSize
	case n > maxQRSize:
		return maxQRSize
	default:
		return n
	}
}
