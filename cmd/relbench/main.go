package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/events"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// openRedis uses REDIS_ADDR when set, otherwise an in-process miniredis.
func openRedis() (*redis.Client, func()) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
		return rdb, func() { _ = rdb.Close() }
	}
	mr := must(miniredis.Run())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	return rdb, func() { _ = rdb.Close(); mr.Close() }
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	PAGE := envInt("PAGE", 50)

	rdb, closeRedis := openRedis()
	defer closeRedis()
	ctx := context.Background()

	users := repository.NewUserRepository(rdb)
	reconciler := service.NewCounterReconciler(users, 100000)
	stop := reconciler.Start(4)
	relSvc := service.NewRelationshipService(users, reconciler, events.Nop{})

	// seed users: u0 is celebrity; others follow u0
	celeb := &model.User{UID: "u0", Username: "u0", Email: "u0@example.com"}
	_ = users.Create(ctx, celeb)
	uids := make([]string, N)
	for i := 0; i < N; i++ {
		id := uuid.NewString()
		uids[i] = id
		if err := users.Create(ctx, &model.User{UID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com"}); err != nil {
			panic(err)
		}
	}

	// follow with CONC workers, then repeat every edge to measure the rejection path
	run := func(op func(string) error) ([]time.Duration, time.Duration, int) {
		workers := CONC
		if workers > N {
			workers = N
		}
		feed := make(chan string, N)
		for _, id := range uids {
			feed <- id
		}
		close(feed)
		out := make(chan time.Duration, N)
		errs := make(chan int, workers)
		t0 := time.Now()
		for w := 0; w < workers; w++ {
			go func() {
				failed := 0
				for id := range feed {
					st := time.Now()
					if op(id) != nil {
						failed++
					}
					out <- time.Since(st)
				}
				errs <- failed
			}()
		}
		failed := 0
		for w := 0; w < workers; w++ {
			failed += <-errs
		}
		total := time.Since(t0)
		close(out)
		recs := make([]time.Duration, 0, N)
		for d := range out {
			recs = append(recs, d)
		}
		return recs, total, failed
	}

	follow := func(id string) error { return relSvc.Follow(ctx, id, service.Target{UID: celeb.UID}) }
	followRecs, followDur, followFailed := run(follow)
	repeatRecs, repeatDur, repeatFailed := run(follow)

	q0 := time.Now()
	members, _ := users.Members(ctx, celeb.UID, model.RelationFollowers)
	if len(members) > PAGE {
		members = members[:PAGE]
	}
	_, _ = users.Identities(ctx, members)
	pageDur := time.Since(q0)

	q1 := time.Now()
	res, _ := relSvc.ListMembers(ctx, celeb.UID, model.RelationFollowers)
	listDur := time.Since(q1)

	drainStart := time.Now()
	_ = stop(ctx)
	drainDur := time.Since(drainStart)

	fixed, _ := reconciler.Reconcile(ctx, celeb.UID)
	count, _ := users.MemberCount(ctx, celeb.UID, model.RelationFollowers)

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
	fmt.Printf("Follow total: %v, per op: %v, p50: %v, p95: %v, p99: %v, failed: %d\n",
		followDur, followDur/time.Duration(N), pct(followRecs, 0.50), pct(followRecs, 0.95), pct(followRecs, 0.99), followFailed)
	fmt.Printf("Repeat follow (rejected) total: %v, p50: %v, p99: %v, rejected: %d\n",
		repeatDur, pct(repeatRecs, 0.50), pct(repeatRecs, 0.99), repeatFailed)
	fmt.Printf("Resolve followers page(%d) latency: %v\n", PAGE, pageDur)
	if res != nil {
		fmt.Printf("ListMembers(all %d) latency: %v\n", res.Count, listDur)
	}
	fmt.Printf("Reconciler drain: %v, followers=%d, counter drift corrected=%v\n", drainDur, count, fixed)
}
