package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/service"
)

// ProfileHandler 处理角色档案相关的 API 请求。
type ProfileHandler struct {
	service service.ProfileService
}

// NewProfileHandler 创建一个新的 ProfileHandler。
func NewProfileHandler(service service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// createProfileRequest 是创建角色的请求体。
type createProfileRequest struct {
	Name          string   `json:"name" binding:"required"`
	Relationship  string   `json:"relationship" binding:"required"`
	Traits        string   `json:"traits" binding:"required"`
	ThemeID       string   `json:"themeId"`
	Tags          []string `json:"tags"`
	IntimacyLevel string   `json:"intimacyLevel"`
}

// CreateProfile 创建一个新角色并触发异步头像生成。
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数", "data": nil})
		return
	}

	profile := &model.CharacterProfile{
		Name:          req.Name,
		Relationship:  req.Relationship,
		Traits:        req.Traits,
		ThemeID:       req.ThemeID,
		Tags:          req.Tags,
		IntimacyLevel: req.IntimacyLevel,
	}
	if err := h.service.CreateProfile(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "创建角色失败", "data": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profile})
}

// GetProfile 返回单个角色档案。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "角色不存在", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profile})
}

// ListProfiles 返回全部角色档案。
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.service.ListProfiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "获取角色列表失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profiles})
}

// DeleteProfile 删除角色并级联清理历史与索引。
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	if err := h.service.DeleteProfile(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "删除角色失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": nil})
}

// GenerateRandomProfile 让模型生成一个随机角色设定（不落库）。
func (h *ProfileHandler) GenerateRandomProfile(c *gin.Context) {
	gender := c.DefaultQuery("gender", "any")
	profile, err := h.service.GenerateRandomProfile(c.Request.Context(), gender)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "生成随机角色失败", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": profile})
}
