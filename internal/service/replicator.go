package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/metrics"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

type reconcileJob struct {
	uid   string
	enqAt time.Time
}

// CounterReconciler 异步修正 followers/following 计数：以集合基数为准重写 hash 字段。
type CounterReconciler struct {
	users repository.UserRepository
	ch    chan reconcileJob
}

func NewCounterReconciler(users repository.UserRepository, queueSize int) *CounterReconciler {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &CounterReconciler{users: users, ch: make(chan reconcileJob, queueSize)}
}

// Start launches workers and returns a stop function that waits for the
// queue to drain or ctx to expire, whichever comes first.
func (r *CounterReconciler) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job := <-r.ch:
					r.process(job)
				case <-stopCh:
					// 退出前排空队列
					for {
						select {
						case job := <-r.ch:
							r.process(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *CounterReconciler) process(job reconcileJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := r.Reconcile(ctx, job.uid); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Warn("counter reconcile failed", logger.UID(job.uid), zap.Error(err))
	}
	metrics.ReconcileLatency.Observe(time.Since(job.enqAt).Seconds())
	metrics.ReconcileQueueLength.Set(float64(len(r.ch)))
}

// Enqueue schedules a recount for each uid. It never blocks; when the queue
// is full the uid is dropped and logged.
func (r *CounterReconciler) Enqueue(uids ...string) {
	for _, uid := range uids {
		select {
		case r.ch <- reconcileJob{uid: uid, enqAt: time.Now()}:
		default:
			logger.Warn("reconciler queue full, drop", logger.UID(uid))
		}
	}
	metrics.ReconcileQueueLength.Set(float64(len(r.ch)))
}

// Reconcile recomputes uid's followers/following counters from the set
// cardinalities and reports whether either counter was corrected.
func (r *CounterReconciler) Reconcile(ctx context.Context, uid string) (bool, error) {
	u, err := r.users.FindByUID(ctx, uid)
	if err != nil {
		return false, err
	}
	fixed := false
	for _, c := range []struct {
		field   string
		rel     model.Relation
		current int64
	}{
		{model.UserFieldFollowers, model.RelationFollowers, u.Followers},
		{model.UserFieldFollowing, model.RelationFollowing, u.Following},
	} {
		n, err := r.users.MemberCount(ctx, uid, c.rel)
		if err != nil {
			return fixed, err
		}
		if n == c.current {
			continue
		}
		// HINCRBY 差值而不是覆盖，避免与并发的 follow 互相覆盖
		if _, err := r.users.IncrCounter(ctx, uid, c.field, n-c.current); err != nil {
			return fixed, err
		}
		fixed = true
		metrics.CounterDrift.Inc()
		logger.Info("counter corrected", logger.UID(uid), zap.String("field", c.field),
			zap.Int64("was", c.current), zap.Int64("now", n))
	}
	return fixed, nil
}

// ReconcileAll walks every registered user synchronously and returns how many
// had at least one counter corrected.
func (r *CounterReconciler) ReconcileAll(ctx context.Context) (int, error) {
	uids, err := r.users.AllUIDs(ctx)
	if err != nil {
		return 0, err
	}
	corrected := 0
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}
		fixed, err := r.Reconcile(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return corrected, err
		}
		if fixed {
			corrected++
		}
	}
	return corrected, nil
}

// QueueLen 返回当前队列长度（采样值）。
func (r *CounterReconciler) QueueLen() int { return len(r.ch) }
