package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func setupRedis(tb testing.TB) (*miniredis.Miniredis, *redis.Client) {
	tb.Helper()
	mr := miniredis.RunT(tb)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func seedUser(t *testing.T, repo UserRepository, uid, username, fullname string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &model.User{
		UID: uid, Username: username, Email: username + "@example.com", Fullname: fullname, PolyCount: 1,
	}))
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	seedUser(t, repo, "u1", "alice", "Alice A")

	u, err := repo.FindByUID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice A", u.Fullname)

	uid, err := repo.UIDByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	err = repo.Create(ctx, &model.User{UID: "u2", Username: "alice"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	// 抢注失败不能改写原 uid
	uid, _ = repo.UIDByUsername(ctx, "alice")
	assert.Equal(t, "u1", uid)

	_, err = repo.FindByUID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.UIDByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_MembersAndCounters(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	ctx := context.Background()
	seedUser(t, repo, "u1", "alice", "")

	added, err := repo.AddMember(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.AddMember(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.False(t, added)

	ok, err := repo.IsMember(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := repo.MemberCount(ctx, "u1", model.RelationFollowers)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err := repo.IncrCounter(ctx, "u1", model.UserFieldFollowers, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = repo.IncrCounter(ctx, "ghost", model.UserFieldFollowers, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := repo.RemoveMember(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveMember(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserRepository_LinkWritesMirror(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	added, err := repo.Link(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.True(t, added)
	ok, err := repo.IsMember(ctx, "u2", model.RelationFollowing, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	added, err = repo.Link(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = repo.Link(ctx, "u3", model.RelationBlocked, "u4")
	require.NoError(t, err)
	ok, err = repo.IsMember(ctx, "u4", model.RelationBlockers, "u3")
	require.NoError(t, err)
	assert.True(t, ok)

	// friends has no mirror: only the forward set is written
	_, err = repo.Link(ctx, "u1", model.RelationFriends, "u2")
	require.NoError(t, err)
	ok, err = repo.IsMember(ctx, "u2", model.RelationFriends, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := repo.Unlink(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.True(t, removed)
	ok, err = repo.IsMember(ctx, "u2", model.RelationFollowing, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err = repo.Unlink(ctx, "u1", model.RelationFollowers, "u2")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserRepository_IdentitiesSkipsDangling(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	seedUser(t, repo, "u1", "alice", "Alice")
	seedUser(t, repo, "u2", "bob", "")

	ids, err := repo.Identities(context.Background(), []string{"u2", "ghost", "u1"})
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{
		{UID: "u2", Username: "bob"},
		{UID: "u1", Username: "alice", Fullname: "Alice"},
	}, ids)

	ids, err = repo.Identities(context.Background(), []string{"ghost"})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepository_NegativeKeywords(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	added, err := repo.AddNegativeKeyword(ctx, "u1", "spoiler")
	require.NoError(t, err)
	assert.True(t, added)
	added, _ = repo.AddNegativeKeyword(ctx, "u1", "spoiler")
	assert.False(t, added)

	hit, err := repo.HasAnyNegativeKeyword(ctx, "u1", []string{"big", "spoiler"})
	require.NoError(t, err)
	assert.True(t, hit)

	hit, err = repo.HasAnyNegativeKeyword(ctx, "u1", []string{"Spoiler"})
	require.NoError(t, err)
	assert.False(t, hit, "matching is case-sensitive")

	hit, err = repo.HasAnyNegativeKeyword(ctx, "u1", nil)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestUserRepository_ProfileExtras(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewUserRepository(rdb)
	ctx := context.Background()

	_, err := repo.PublicKey(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, repo.SetPublicKey(ctx, "u1", "ssh-rsa AAA"))
	key, err := repo.PublicKey(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ssh-rsa AAA", key)

	ok, err := repo.AddDevice(ctx, "u1", "iphone")
	require.NoError(t, err)
	assert.True(t, ok)
	devices, err := repo.Devices(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"iphone"}, devices)

	ok, err = repo.BlockImage(ctx, "u1", "d41d8c")
	require.NoError(t, err)
	assert.True(t, ok)
	blocked, err := repo.IsImageBlocked(ctx, "u1", "d41d8c")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestTokenRepository(t *testing.T) {
	mr, rdb := setupRedis(t)
	repo := NewTokenRepository(rdb)
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "tok", time.Minute))
	ok, err := repo.IsBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	mr.FastForward(2 * time.Minute)
	ok, _ = repo.IsBlacklisted(ctx, "tok")
	assert.False(t, ok)

	require.NoError(t, repo.SaveActivation(ctx, "act", "u1", time.Hour))
	uid, err := repo.ActivationUID(ctx, "act")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
	require.NoError(t, repo.DeleteActivation(ctx, "act"))
	_, err = repo.ActivationUID(ctx, "act")
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 1; i <= 3; i++ {
		n, err := repo.RecordLoginFailure(ctx, "alice", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}
	n, _ := repo.LoginFailures(ctx, "alice")
	assert.Equal(t, int64(3), n)
	mr.FastForward(2 * time.Minute)
	n, _ = repo.LoginFailures(ctx, "alice")
	assert.Zero(t, n)
}

func TestPostRepository_SaveFindAndCounters(t *testing.T) {
	mr, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 0)
	ctx := context.Background()

	p := &model.Post{ID: "p1", UID: "u1", Type: model.PostTypePhoto, URL: "https://cdn/p.jpg", MD5: "m", Created: 100}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Type, got.Type)
	assert.Equal(t, p.URL, got.URL)
	assert.Equal(t, p.Created, got.Created)

	own, err := repo.Timeline(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, own)
	assert.Equal(t, "1", mr.HGet("photos", "u1"))

	_, err = repo.Find(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	posts, err := repo.FindMany(ctx, []string{"p1", "missing"})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Contains(t, posts, "p1")
}

func TestPostRepository_DeliverTrims(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 3)
	ctx := context.Background()

	// ids sort in the opposite order to delivery, so rank order and age disagree
	for _, id := range []string{"z", "y", "x", "w"} {
		require.NoError(t, repo.Deliver(ctx, "u1", id, 0))
	}

	ids, err := repo.Timeline(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"w", "x", "y"}, ids)

	for _, imp := range model.Importances {
		ranked, err := rdb.ZRange(ctx, importanceKey("u1", imp), 0, -1).Result()
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, ranked, imp)
		assert.Contains(t, ranked, "w", imp)
		assert.NotContains(t, ranked, "z", imp)
	}
}

func TestPostRepository_DeliverTrimKeepsRedeliveredIDs(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 3)
	ctx := context.Background()

	// "a" is delivered twice (a reshare); its older copy falls off the list
	// while the newer one is still inside the window
	for _, id := range []string{"a", "b", "a", "c"} {
		require.NoError(t, repo.Deliver(ctx, "u1", id, 0))
	}
	ids, err := repo.Timeline(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	for _, imp := range model.Importances {
		ranked, err := rdb.ZRange(ctx, importanceKey("u1", imp), 0, -1).Result()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, ranked, imp)
	}

	require.NoError(t, repo.Deliver(ctx, "u1", "d", 0))
	for _, imp := range model.Importances {
		ranked, err := rdb.ZRange(ctx, importanceKey("u1", imp), 0, -1).Result()
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"d", "c", "a"}, ranked, imp)
	}
}

func TestPostRepository_SaveTrimKeepsRankedInSync(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 2)
	ctx := context.Background()

	require.NoError(t, repo.Deliver(ctx, "u1", "from-friend", 0))
	require.NoError(t, repo.Save(ctx, &model.Post{ID: "own-1", UID: "u1", Type: model.PostTypeText}))
	require.NoError(t, repo.Save(ctx, &model.Post{ID: "own-2", UID: "u1", Type: model.PostTypeText}))

	ids, err := repo.Timeline(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"own-2", "own-1"}, ids)
	for _, imp := range model.Importances {
		n, err := rdb.ZCard(ctx, importanceKey("u1", imp)).Result()
		require.NoError(t, err)
		assert.Zero(t, n, imp)
	}
}

func TestPostRepository_DeliverUnbounded(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 0)
	ctx := context.Background()
	for _, id := range []string{"z", "y", "x", "w", "v"} {
		require.NoError(t, repo.Deliver(ctx, "u1", id, 0))
	}
	for _, imp := range model.Importances {
		n, err := rdb.ZCard(ctx, importanceKey("u1", imp)).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	}
}

func TestPostRepository_ActionPrimitives(t *testing.T) {
	_, rdb := setupRedis(t)
	repo := NewPostRepository(rdb, 0)
	ctx := context.Background()

	set, err := repo.SetActionFlag(ctx, model.ActionLike, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, set)
	set, _ = repo.SetActionFlag(ctx, model.ActionLike, "p1", "u1")
	assert.False(t, set)

	has, err := repo.HasActionFlag(ctx, model.ActionLike, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, has)
	has, _ = repo.HasActionFlag(ctx, model.ActionLove, "p1", "u1")
	assert.False(t, has)

	for i := 0; i < 2; i++ {
		_, err = repo.PushActor(ctx, model.ActionLike, "p1", "u1")
		require.NoError(t, err)
	}
	_, _ = repo.PushActor(ctx, model.ActionLike, "p1", "u2")

	actors, err := repo.Actors(ctx, model.ActionLike, "p1", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1", "u1"}, actors)

	n, err := repo.RemoveActor(ctx, model.ActionLike, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cleared, err := repo.ClearActionFlag(ctx, model.ActionLike, "p1", "u1")
	require.NoError(t, err)
	assert.True(t, cleared)
}
