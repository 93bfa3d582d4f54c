package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

type postRequest struct {
	UUID string `json:"uuid" binding:"required"`
}

// PerformAction returns the handler for POST /api/<noun>, e.g. /api/like.
// Repeating an action is not an error; the body reports alreadyLikedPost.
func (h *Handler) PerformAction(a model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req postRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}
		res, err := h.actionService.PerformAction(c.Request.Context(), a, req.UUID, callerUID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, res)
	}
}

// ReverseAction returns the handler for POST /api/un<noun>.
func (h *Handler) ReverseAction(a model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req postRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err)
			return
		}
		res, err := h.actionService.ReverseAction(c.Request.Context(), a, req.UUID, callerUID(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, res)
	}
}

// ListActions returns the handler for GET /api/<plural>?uuid=&index=&count=.
func (h *Handler) ListActions(a model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		postID := c.Query("uuid")
		if postID == "" {
			response.Error(c, apperr.Validation("invalid_request", "Request validation failed", map[string]string{"uuid": "is required"}))
			return
		}
		offset, limit := h.page(c)
		res, err := h.actionService.ListActions(c.Request.Context(), a, postID, offset, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, res)
	}
}
