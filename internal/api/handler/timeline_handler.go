package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

// Timeline 读取时间线（最新在前）
// @Summary 读取调用者的 timeline
// @Tags 时间线
// @Param index query int false "起始位置" default(0)
// @Param count query int false "数量" default(20)
// @Success 200 {object} service.TimelineResult
// @Router /api/timeline [get]
func (h *Handler) Timeline(c *gin.Context) {
	offset, limit := h.page(c)
	res, err := h.timelineService.GetTimeline(c.Request.Context(), callerUID(c), offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// TimelineByImportance 按重要度读取时间线
// @Summary 读取 personal 或 everyone 排序视图
// @Tags 时间线
// @Param importance path string true "personal 或 everyone"
// @Param index query int false "起始位置" default(0)
// @Param count query int false "数量" default(20)
// @Success 200 {object} service.TimelineResult
// @Failure 400 {object} response.ErrorBody
// @Router /api/timeline/{importance} [get]
func (h *Handler) TimelineByImportance(c *gin.Context) {
	imp, err := model.ParseImportance(c.Param("importance"))
	if err != nil {
		response.Error(c, apperr.Validation("unknown_importance", err.Error(), nil))
		return
	}
	offset, limit := h.page(c)
	res, err := h.timelineService.GetTimelineByImportance(c.Request.Context(), callerUID(c), imp, offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
