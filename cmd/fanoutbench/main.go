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
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/internal/service"
)

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func main() {
	FOLLOWERS := envInt("FOLLOWERS", 5000)
	POSTS := envInt("POSTS", 20)
	WORKERS := envInt("WORKERS", 16)
	MUTED := envInt("MUTED_EVERY", 10) // every Nth follower filters the keyword

	var rdb *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	} else {
		mr, err := miniredis.Run()
		if err != nil {
			panic(err)
		}
		defer mr.Close()
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	}
	defer rdb.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(rdb)
	posts := repository.NewPostRepository(rdb, 1000)

	author := "author"
	_ = users.Create(ctx, &model.User{UID: author, Username: author})
	for i := 0; i < FOLLOWERS; i++ {
		uid := fmt.Sprintf("f%06d", i)
		_ = users.Create(ctx, &model.User{UID: uid, Username: uid})
		_, _ = users.AddMember(ctx, author, model.RelationFollowers, uid)
		if i%MUTED == 0 {
			_, _ = users.AddNegativeKeyword(ctx, uid, "spoiler")
		}
	}

	pub := service.NewPublisher(posts, service.NewFanout(users, posts, WORKERS), nil)

	lat := make([]time.Duration, 0, POSTS)
	t0 := time.Now()
	for i := 0; i < POSTS; i++ {
		content := "hello world"
		if i%2 == 1 {
			content = "big spoiler ahead"
		}
		st := time.Now()
		if _, err := pub.CreateStatus(ctx, author, service.StatusInput{Content: content}); err != nil {
			panic(err)
		}
		lat = append(lat, time.Since(st))
	}
	total := time.Since(t0)

	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	at := func(p float64) time.Duration {
		k := int(math.Ceil(p*float64(len(lat)))) - 1
		if k < 0 {
			k = 0
		}
		return lat[k]
	}

	sample, _ := posts.Timeline(ctx, "f000001", 0, 1000)
	muted, _ := posts.Timeline(ctx, "f000000", 0, 1000)
	fmt.Printf("FOLLOWERS=%d POSTS=%d WORKERS=%d\n", FOLLOWERS, POSTS, WORKERS)
	fmt.Printf("CreateStatus: total=%v per post=%v p50=%v p95=%v p99=%v\n", total, total/time.Duration(POSTS), at(0.50), at(0.95), at(0.99))
	fmt.Printf("Per delivery: %v\n", total/time.Duration(POSTS*FOLLOWERS))
	fmt.Printf("Timeline length: unfiltered follower=%d, filtering follower=%d\n", len(sample), len(muted))
}
