package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

type followRequest struct {
	UID      string `json:"uid" binding:"required_without=Username"`
	Username string `json:"username" binding:"required_without=UID"`
}

func (r followRequest) target() service.Target {
	return service.Target{UID: r.UID, Username: r.Username}
}

// Follow 建立关注
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "目标用户 uid 或 username"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.relService.Follow(c.Request.Context(), callerUID(c), req.target()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "目标用户 uid 或 username"
// @Success 200 {object} map[string]string
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /api/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), callerUID(c), req.target()); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListMembers 查询关系成员
// @Summary 查询 followers/following/friends/blocked/muted 等成员列表
// @Tags 关系链
// @Param uid path string true "用户ID"
// @Param relation path string true "关系类型"
// @Success 200 {object} service.MembersResult
// @Router /api/users/{uid}/{relation} [get]
func (h *Handler) ListMembers(c *gin.Context) {
	rel, err := model.ParseRelation(c.Param("relation"))
	if err != nil {
		response.Error(c, apperr.Validation("unknown_relation", err.Error(), nil))
		return
	}
	res, err := h.relService.ListMembers(c.Request.Context(), c.Param("uid"), rel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
