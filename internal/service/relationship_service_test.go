package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
)

func TestFollow_TwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")

	require.NoError(t, env.rel.Follow(ctx, a, Target{UID: b}))
	err := env.rel.Follow(ctx, a, Target{UID: b})
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	bob, err := env.users.FindByUID(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bob.Followers)
	alice, _ := env.users.FindByUID(ctx, a)
	assert.Equal(t, int64(1), alice.Following)
}

func TestFollowThenUnfollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")

	require.NoError(t, env.rel.Follow(ctx, a, Target{Username: "bob"}))
	require.NoError(t, env.rel.Unfollow(ctx, a, Target{UID: b}))

	res, err := env.rel.ListMembers(ctx, b, model.RelationFollowers)
	require.NoError(t, err)
	assert.NotContains(t, memberUIDs(res), a)
	assert.Zero(t, res.Count)

	bob, _ := env.users.FindByUID(ctx, b)
	assert.Zero(t, bob.Followers)
	alice, _ := env.users.FindByUID(ctx, a)
	assert.Zero(t, alice.Following)

	err = env.rel.Unfollow(ctx, a, Target{UID: b})
	assert.ErrorIs(t, err, ErrNotFollowing)
}

func TestSelfFollowAlwaysFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")
	env.follow(t, b, a)

	for _, target := range []Target{{UID: a}, {Username: "alice"}} {
		assert.ErrorIs(t, env.rel.Follow(ctx, a, target), ErrFollowSelf)
		assert.ErrorIs(t, env.rel.Unfollow(ctx, a, target), ErrUnfollowSelf)
	}
	// self check precedes existence of the actor's own record
	assert.ErrorIs(t, env.rel.Follow(ctx, "ghost", Target{UID: "ghost"}), ErrFollowSelf)

	res, err := env.rel.ListMembers(ctx, a, model.RelationFollowers)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, memberUIDs(res))
}

func TestFollow_TargetResolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.user(t, "alice")

	err := env.rel.Follow(ctx, a, Target{UID: "nobody"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.ErrorIs(t, env.rel.Follow(ctx, a, Target{Username: "nobody"}), ErrUserNotFound)
	assert.ErrorIs(t, env.rel.Follow(ctx, a, Target{}), ErrIncompleteRequest)
}

func TestFriendsReflectMutualFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	require.NoError(t, env.rel.Follow(ctx, alice, Target{UID: bob}))
	res, err := env.rel.ListMembers(ctx, bob, model.RelationFollowers)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Members, 1)
	assert.Equal(t, Member{UID: alice, Username: "alice", Fullname: "Full alice"}, res.Members[0])

	friends, _ := env.rel.ListMembers(ctx, bob, model.RelationFriends)
	assert.Zero(t, friends.Count)

	require.NoError(t, env.rel.Follow(ctx, bob, Target{UID: alice}))
	for uid, other := range map[string]string{alice: bob, bob: alice} {
		friends, err := env.rel.ListMembers(ctx, uid, model.RelationFriends)
		require.NoError(t, err)
		assert.Equal(t, []string{other}, memberUIDs(friends))
	}

	require.NoError(t, env.rel.Unfollow(ctx, alice, Target{UID: bob}))
	for _, uid := range []string{alice, bob} {
		friends, _ := env.rel.ListMembers(ctx, uid, model.RelationFriends)
		assert.Zero(t, friends.Count)
	}
}

func TestListMembers_SkipsDangling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")
	env.follow(t, b, a)
	_, err := env.users.AddMember(ctx, a, model.RelationFollowers, "deleted-user")
	require.NoError(t, err)

	res, err := env.rel.ListMembers(ctx, a, model.RelationFollowers)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, memberUIDs(res))
	assert.Equal(t, 1, res.Count)
	assert.GreaterOrEqual(t, res.Duration, int64(0))
}

func TestListMembers_BlockAndMuteProjections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")
	_, _ = env.users.AddMember(ctx, a, model.RelationBlocked, b)
	_, _ = env.users.AddMember(ctx, b, model.RelationBlockers, a)

	res, err := env.rel.ListMembers(ctx, a, model.RelationBlocked)
	require.NoError(t, err)
	assert.Equal(t, []string{b}, memberUIDs(res))
	res, _ = env.rel.ListMembers(ctx, b, model.RelationBlockers)
	assert.Equal(t, []string{a}, memberUIDs(res))
	res, _ = env.rel.ListMembers(ctx, a, model.RelationMuted)
	assert.Zero(t, res.Count)
}

func TestFollow_LostRaceDoesNotDoubleCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.user(t, "alice"), env.user(t, "bob")

	// The pre-check passes but the edge lands before our SADD, as with a
	// concurrent follow that has not yet bumped the counters.
	svc := env.rel.(*relationshipService)
	svc.users = &racingUsers{UserRepository: env.users}

	err := svc.Follow(ctx, a, Target{UID: b})
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.Equal(t, 2, env.reconciler.QueueLen())

	bob, _ := env.users.FindByUID(ctx, b)
	assert.Zero(t, bob.Followers)

	fixed, err := env.reconciler.Reconcile(ctx, b)
	require.NoError(t, err)
	assert.True(t, fixed)
	bob, _ = env.users.FindByUID(ctx, b)
	assert.Equal(t, int64(1), bob.Followers)
}

func TestFollow_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bob")
	env.follow(t, a, b)
	require.NoError(t, env.rel.Unfollow(context.Background(), a, Target{UID: b}))

	published := env.events.Events()
	require.Len(t, published, 2)
	assert.Equal(t, model.EventFollowed, published[0].Type)
	assert.Equal(t, b, published[0].TargetUID)
	assert.Equal(t, model.EventUnfollowed, published[1].Type)
}

func TestFollow_StorageFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bob")
	env.mr.Close()

	err := env.rel.Follow(context.Background(), a, Target{UID: b})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

// racingUsers reports "not a member" on the first followers check and
// inserts the member behind the caller's back.
type racingUsers struct {
	repository.UserRepository
	raced bool
}

func (r *racingUsers) IsMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	if rel == model.RelationFollowers && !r.raced {
		r.raced = true
		if _, err := r.UserRepository.AddMember(ctx, uid, rel, member); err != nil {
			return false, err
		}
		return false, nil
	}
	return r.UserRepository.IsMember(ctx, uid, rel, member)
}
