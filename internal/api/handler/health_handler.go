package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
	"github.com/d60-Lab/socialgraph/pkg/response"
)

// Health pings Redis.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("health check failed", zap.Error(err))
		response.Error(c, apperr.Unavailable("redis_unavailable", "Redis is unreachable"))
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
