package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/guard"
)

// UsageHandler 暴露本地用量状态，供前端展示限速与冷却信息。
type UsageHandler struct {
	usageGuard *guard.UsageGuard
}

// NewUsageHandler 创建一个新的 UsageHandler。
func NewUsageHandler(usageGuard *guard.UsageGuard) *UsageHandler {
	return &UsageHandler{usageGuard: usageGuard}
}

// GetStatus 返回当前用量快照。
func (h *UsageHandler) GetStatus(c *gin.Context) {
	stats := h.usageGuard.Status(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": stats})
}
