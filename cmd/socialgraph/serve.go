package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/api/handler"
	"github.com/d60-Lab/socialgraph/internal/events"
	"github.com/d60-Lab/socialgraph/internal/service"
	"github.com/d60-Lab/socialgraph/pkg/jwt"
	"github.com/d60-Lab/socialgraph/pkg/logger"
	"github.com/d60-Lab/socialgraph/pkg/media"
	"github.com/d60-Lab/socialgraph/pkg/password"
	"github.com/d60-Lab/socialgraph/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()
		return serve(a)
	},
}

func serve(a *app) error {
	cfg := a.cfg
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Sentry.Environment)
	if err != nil {
		return err
	}

	pub := events.New(cfg.Kafka)
	store, err := media.New(cfg.Media)
	if err != nil {
		return err
	}
	if err := media.EnsureBucket(ctx, store); err != nil && !errors.Is(err, media.ErrDisabled) {
		logger.Warn("media bucket unavailable", zap.Error(err))
	}

	reconciler := service.NewCounterReconciler(a.users, cfg.Fanout.ReconcileQueue)
	stopReconciler := reconciler.Start(cfg.Fanout.ReconcileWorkers)

	actions := service.NewActionService(a.posts, a.users)
	h := handler.New(handler.Deps{
		Auth: service.NewAuthService(a.users, a.tokens,
			jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer),
			password.Default(), cfg.Login),
		Relations: service.NewRelationshipService(a.users, reconciler, pub),
		Actions:   actions,
		Publisher: service.NewPublisher(a.posts, service.NewFanout(a.users, a.posts, cfg.Fanout.Workers), pub),
		Timeline:  service.NewTimelineService(a.posts, a.users, actions),
		Users:     service.NewUserService(a.users),
		Media:     store,
		Redis:     a.rdb,
		Paging:    cfg.Timeline,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(h, cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("socialgraph listening", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	sctx, cancel := withTimeout(cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := stopReconciler(sctx); err != nil {
		logger.Warn("reconciler stop", zap.Error(err))
	}
	if err := pub.Close(); err != nil {
		logger.Warn("close event publisher", zap.Error(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}
