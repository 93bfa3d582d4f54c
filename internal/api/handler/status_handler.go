package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

type statusRequest struct {
	Content string `json:"content" binding:"max=5000"`
	Type    string `json:"type" binding:"omitempty,oneof=text photo video"`
	URL     string `json:"url" binding:"omitempty,url"`
	MD5     string `json:"md5" binding:"omitempty,len=32,hexadecimal"`
}

// CreateStatus 发布动态（写扩散）
// @Summary 发布动态并推送到粉丝 timeline
// @Tags 动态
// @Accept json
// @Produce json
// @Param request body statusRequest true "动态内容"
// @Success 200 {object} model.Post
// @Failure 400 {object} response.ErrorBody
// @Router /api/status [post]
func (h *Handler) CreateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	post, err := h.publisher.CreateStatus(c.Request.Context(), callerUID(c), service.StatusInput{
		Content: req.Content,
		Type:    req.Type,
		URL:     req.URL,
		MD5:     req.MD5,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// Reshare 转发
// @Summary 将已有动态推送到自己的粉丝
// @Tags 动态
// @Accept json
// @Produce json
// @Param request body postRequest true "post uuid"
// @Success 200 {object} map[string]string
// @Router /api/reshare [post]
func (h *Handler) Reshare(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	post, err := h.publisher.ReshareStatus(c.Request.Context(), callerUID(c), req.UUID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if post == nil {
		response.Success(c, nil)
		return
	}
	response.Success(c, gin.H{"resharedPost": post.ID})
}
