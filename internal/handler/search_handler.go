package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/service"
)

// SearchHandler 处理聊天历史全文检索的 API 请求。
type SearchHandler struct {
	service service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler。
func NewSearchHandler(service service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchMessages 在某个角色的历史消息中做全文检索。
func (h *SearchHandler) SearchMessages(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "缺少检索关键词", "data": nil})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	docs, err := h.service.SearchMessages(c.Request.Context(), c.Param("profileID"), query, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "检索失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": docs})
}
