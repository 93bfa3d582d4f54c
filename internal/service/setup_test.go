package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/events/eventstest"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/jwt"
	"github.com/d60-Lab/socialgraph/pkg/password"
)

type testEnv struct {
	mr         *miniredis.Miniredis
	rdb        *redis.Client
	users      repository.UserRepository
	posts      repository.PostRepository
	tokens     repository.TokenRepository
	events     *eventstest.Recorder
	reconciler *CounterReconciler
	rel        RelationshipService
	actions    ActionService
	publisher  *Publisher
	timeline   TimelineService
	auth       AuthService
	profiles   UserService
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		mr:     mr,
		rdb:    rdb,
		users:  repository.NewUserRepository(rdb),
		posts:  repository.NewPostRepository(rdb, 0),
		tokens: repository.NewTokenRepository(rdb),
		events: &eventstest.Recorder{},
	}
	env.reconciler = NewCounterReconciler(env.users, 16)
	env.rel = NewRelationshipService(env.users, env.reconciler, env.events)
	env.actions = NewActionService(env.posts, env.users)
	env.publisher = NewPublisher(env.posts, NewFanout(env.users, env.posts, 4), env.events)
	env.timeline = NewTimelineService(env.posts, env.users, env.actions)
	env.auth = NewAuthService(env.users, env.tokens,
		jwt.NewManager("test-secret", time.Hour, "socialgraph"),
		&password.Hasher{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 16, SaltLen: 8},
		config.LoginConfig{MaxFailures: 3, LockoutWindow: time.Minute, ActivationTTL: time.Hour},
	)
	env.profiles = NewUserService(env.users)
	return env
}

// user registers a bare account and returns its uid.
func (e *testEnv) user(t testing.TB, username string) string {
	t.Helper()
	uid := "uid-" + username
	require.NoError(t, e.users.Create(context.Background(), &model.User{
		UID: uid, Username: username, Email: username + "@example.com", Fullname: "Full " + username,
	}))
	return uid
}

func (e *testEnv) post(t testing.TB, id, author, content string) {
	t.Helper()
	require.NoError(t, e.posts.Save(context.Background(), &model.Post{
		ID: id, UID: author, Type: model.PostTypeText, Content: content, Created: time.Now().Unix(),
	}))
}

func (e *testEnv) follow(t testing.TB, actor, target string) {
	t.Helper()
	require.NoError(t, e.rel.Follow(context.Background(), actor, Target{UID: target}))
}

func memberUIDs(res *MembersResult) []string {
	out := make([]string, len(res.Members))
	for i, m := range res.Members {
		out[i] = m.UID
	}
	return out
}
