package handler

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/api/middleware"
	"github.com/d60-Lab/socialgraph/internal/model"
)

// NewRouter builds the engine with the middleware chain and every route.
func NewRouter(h *Handler, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	public := r.Group("/api")
	public.Use(middleware.RateLimit(cfg.RateLimit))
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.GET("/activate/:token", h.Activate)
	}

	api := r.Group("/api")
	api.Use(middleware.Auth(h.authService), middleware.RateLimit(cfg.RateLimit))
	{
		api.POST("/logout", h.Logout)

		// 关系链
		api.POST("/follow", h.Follow)
		api.POST("/unfollow", h.Unfollow)
		api.GET("/users/:uid", h.Profile)
		api.GET("/users/:uid/:relation", h.ListMembers)

		api.GET("/me", h.Me)
		api.POST("/keywords/negative", h.AddNegativeKeyword)
		api.POST("/images/block", h.BlockImage)
		api.GET("/devices", h.Devices)
		api.POST("/devices", h.AddDevice)
		api.GET("/keys/public", h.PublicKey)
		api.PUT("/keys/public", h.SetPublicKey)

		api.POST("/status", h.CreateStatus)
		api.POST("/reshare", h.Reshare)

		for _, a := range model.Actions {
			api.POST("/"+a.Noun(), h.PerformAction(a))
			api.POST("/un"+a.Noun(), h.ReverseAction(a))
			api.GET("/"+a.Plural(), h.ListActions(a))
		}

		api.GET("/timeline", h.Timeline)
		api.GET("/timeline/:importance", h.TimelineByImportance)

		api.POST("/upload", h.Upload)
		api.POST("/request/storage/key", h.RequestStorageKey)
	}
	return r
}
