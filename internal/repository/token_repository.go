package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository holds revoked bearer tokens, activation tokens and the
// failed-login counters used for lockout.
type TokenRepository interface {
	Blacklist(ctx context.Context, token string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	SaveActivation(ctx context.Context, token, uid string, ttl time.Duration) error
	ActivationUID(ctx context.Context, token string) (string, error)
	DeleteActivation(ctx context.Context, token string) error
	RecordLoginFailure(ctx context.Context, username string, window time.Duration) (int64, error)
	LoginFailures(ctx context.Context, username string) (int64, error)
	ResetLoginFailures(ctx context.Context, username string) error
}

type tokenRepository struct {
	rdb redis.Cmdable
}

func NewTokenRepository(rdb redis.Cmdable) TokenRepository { return &tokenRepository{rdb: rdb} }

func (r *tokenRepository) Blacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired
	}
	return r.rdb.Set(ctx, blacklistKey+token, "1", ttl).Err()
}

func (r *tokenRepository) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, blacklistKey+token).Result()
	return n > 0, err
}

func (r *tokenRepository) SaveActivation(ctx context.Context, token, uid string, ttl time.Duration) error {
	return r.rdb.Set(ctx, activateKey+token+":uid", uid, ttl).Err()
}

func (r *tokenRepository) ActivationUID(ctx context.Context, token string) (string, error) {
	uid, err := r.rdb.Get(ctx, activateKey+token+":uid").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return uid, err
}

func (r *tokenRepository) DeleteActivation(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, activateKey+token+":uid").Err()
}

// RecordLoginFailure increments the failure counter; the window starts at the first failure.
func (r *tokenRepository) RecordLoginFailure(ctx context.Context, username string, window time.Duration) (int64, error) {
	key := loginFailKey + username
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *tokenRepository) LoginFailures(ctx context.Context, username string) (int64, error) {
	n, err := r.rdb.Get(ctx, loginFailKey+username).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *tokenRepository) ResetLoginFailures(ctx context.Context, username string) error {
	return r.rdb.Del(ctx, loginFailKey+username).Err()
}
