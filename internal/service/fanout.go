package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/socialgraph/internal/metrics"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/tracing"
)

// FanoutResult summarises one fan-out run.
type FanoutResult struct {
	Followers  int
	Delivered  int
	Suppressed int
	Elapsed    time.Duration
}

// Fanout 写扩散：把一条 post 推入每个合格粉丝的三个 timeline 结构。
type Fanout struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	workers int
}

func NewFanout(users repository.UserRepository, posts repository.PostRepository, workers int) *Fanout {
	if workers <= 0 {
		workers = 16
	}
	return &Fanout{users: users, posts: posts, workers: workers}
}

// Deliver pushes post into the timelines of every follower of sourceUID. A
// follower with any token on its negative-keyword list is skipped entirely.
// The first storage error cancels the remaining deliveries and is returned;
// followers already written keep the post.
func (f *Fanout) Deliver(ctx context.Context, sourceUID string, post *model.Post, tokens []string) (FanoutResult, error) {
	ctx, span := tracing.Tracer().Start(ctx, "fanout.deliver")
	defer span.End()
	start := time.Now()

	followers, err := f.users.Members(ctx, sourceUID, model.RelationFollowers)
	if err != nil {
		span.RecordError(err)
		return FanoutResult{}, fmt.Errorf("load followers of %s: %w", sourceUID, err)
	}

	var delivered, suppressed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for _, follower := range followers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			blocked, err := f.users.HasAnyNegativeKeyword(gctx, follower, tokens)
			if err != nil {
				return fmt.Errorf("negative keywords of %s: %w", follower, err)
			}
			if blocked {
				suppressed.Add(1)
				return nil
			}
			if err := f.posts.Deliver(gctx, follower, post.ID, importanceScore(post, follower)); err != nil {
				return fmt.Errorf("deliver %s to %s: %w", post.ID, follower, err)
			}
			delivered.Add(1)
			return nil
		})
	}
	err = g.Wait()

	res := FanoutResult{
		Followers:  len(followers),
		Delivered:  int(delivered.Load()),
		Suppressed: int(suppressed.Load()),
		Elapsed:    time.Since(start),
	}
	metrics.FanoutDeliveries.Add(float64(res.Delivered))
	metrics.FanoutSuppressed.Add(float64(res.Suppressed))
	metrics.FanoutDuration.Observe(res.Elapsed.Seconds())
	span.SetAttributes(
		attribute.String("post.id", post.ID),
		attribute.Int("fanout.followers", res.Followers),
		attribute.Int("fanout.delivered", res.Delivered),
		attribute.Int("fanout.suppressed", res.Suppressed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "partial delivery")
	}
	return res, err
}

// importanceScore ranks a post within a follower's importance sets. Ranking
// is not implemented yet; every entry scores 0.
func importanceScore(_ *model.Post, _ string) float64 {
	return 0
}
