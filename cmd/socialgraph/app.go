package main

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/database"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// app holds what every subcommand needs: config, logger, redis and the
// repositories on top of it.
type app struct {
	cfg    *config.Config
	rdb    *redis.Client
	users  repository.UserRepository
	posts  repository.PostRepository
	tokens repository.TokenRepository
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		rdb:    rdb,
		users:  repository.NewUserRepository(rdb),
		posts:  repository.NewPostRepository(rdb, cfg.Timeline.MaxLength),
		tokens: repository.NewTokenRepository(rdb),
	}, nil
}

func (a *app) close() {
	if err := a.rdb.Close(); err != nil {
		logger.Warn("close redis", zap.Error(err))
	}
	sentry.Flush(2 * time.Second)
	_ = logger.Sync()
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}
