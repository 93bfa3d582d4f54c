package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/media"
)

// Deps collects the collaborators the HTTP layer needs.
type Deps struct {
	Auth      service.AuthService
	Relations service.RelationshipService
	Actions   service.ActionService
	Publisher *service.Publisher
	Timeline  service.TimelineService
	Users     service.UserService
	Media     media.Store
	Redis     redis.Cmdable
	Paging    config.TimelineConfig
}

type Handler struct {
	authService     service.AuthService
	relService      service.RelationshipService
	actionService   service.ActionService
	publisher       *service.Publisher
	timelineService service.TimelineService
	userService     service.UserService
	media           media.Store
	rdb             redis.Cmdable
	paging          config.TimelineConfig
}

func New(d Deps) *Handler {
	paging := d.Paging
	if paging.DefaultCount <= 0 {
		paging.DefaultCount = 20
	}
	if paging.MaxCount <= 0 {
		paging.MaxCount = 100
	}
	return &Handler{
		authService:     d.Auth,
		relService:      d.Relations,
		actionService:   d.Actions,
		publisher:       d.Publisher,
		timelineService: d.Timeline,
		userService:     d.Users,
		media:           d.Media,
		rdb:             d.Redis,
		paging:          paging,
	}
}

// page reads ?index=&count= with the configured default and cap. Malformed
// values fall back to the defaults.
func (h *Handler) page(c *gin.Context) (offset, limit int) {
	offset, err := strconv.Atoi(c.DefaultQuery("index", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	limit, err = strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(h.paging.DefaultCount)))
	if err != nil || limit <= 0 {
		limit = h.paging.DefaultCount
	}
	if limit > h.paging.MaxCount {
		limit = h.paging.MaxCount
	}
	return offset, limit
}

func callerUID(c *gin.Context) string { return c.GetString(middleware.UIDKey) }
