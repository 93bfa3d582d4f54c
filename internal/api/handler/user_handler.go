package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/pkg/response"
)

type keywordRequest struct {
	Keyword string `json:"keyword" binding:"required,max=64"`
}

type blockImageRequest struct {
	MD5 string `json:"md5" binding:"required,len=32,hexadecimal"`
}

type deviceRequest struct {
	Device string `json:"device" binding:"required,max=256"`
}

type publicKeyRequest struct {
	PublicKey string `json:"publicKey" binding:"required"`
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.userService.Profile(c.Request.Context(), callerUID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// Profile 查询用户资料
// @Summary 按 uid 查询用户
// @Tags 用户
// @Param uid path string true "用户ID"
// @Success 200 {object} model.User
// @Failure 404 {object} response.ErrorBody
// @Router /api/users/{uid} [get]
func (h *Handler) Profile(c *gin.Context) {
	u, err := h.userService.Profile(c.Request.Context(), c.Param("uid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, u)
}

// AddNegativeKeyword suppresses posts containing the keyword from the
// caller's timeline.
func (h *Handler) AddNegativeKeyword(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	added, err := h.userService.AddNegativeKeyword(c.Request.Context(), callerUID(c), req.Keyword)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"added": added})
}

func (h *Handler) BlockImage(c *gin.Context) {
	var req blockImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	added, err := h.userService.BlockImage(c.Request.Context(), callerUID(c), req.MD5)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"blocked": added})
}

func (h *Handler) Devices(c *gin.Context) {
	devices, err := h.userService.Devices(c.Request.Context(), callerUID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"devices": devices, "count": len(devices)})
}

func (h *Handler) AddDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	added, err := h.userService.AddDevice(c.Request.Context(), callerUID(c), req.Device)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"added": added})
}

func (h *Handler) PublicKey(c *gin.Context) {
	key, err := h.userService.PublicKey(c.Request.Context(), callerUID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"publicKey": key})
}

func (h *Handler) SetPublicKey(c *gin.Context) {
	var req publicKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.userService.SetPublicKey(c.Request.Context(), callerUID(c), req.PublicKey); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
