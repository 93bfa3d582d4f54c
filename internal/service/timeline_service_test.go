package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/socialgraph/internal/model"
)

func entityIDs(res *TimelineResult) []string {
	out := make([]string, len(res.Entities))
	for i, e := range res.Entities {
		out[i] = e.Activity.UUID
	}
	return out
}

func TestGetTimeline_PaginationNoOverlapNoGap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author, viewer := env.user(t, "author"), env.user(t, "viewer")
	env.follow(t, viewer, author)

	var created []string
	for i := 0; i < 4; i++ {
		p, err := env.publisher.CreateStatus(ctx, author, StatusInput{Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
		created = append([]string{p.ID}, created...)
	}

	first, err := env.timeline.GetTimeline(ctx, viewer, 0, 2)
	require.NoError(t, err)
	second, err := env.timeline.GetTimeline(ctx, viewer, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 2, second.Count)
	assert.Equal(t, created, append(entityIDs(first), entityIDs(second)...))
}

func TestGetTimeline_ComposesFlagsAndActor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author, viewer := env.user(t, "author"), env.user(t, "viewer")
	env.follow(t, viewer, author)

	p, err := env.publisher.CreateStatus(ctx, author, StatusInput{Content: "look", Type: "photo", URL: "https://cdn/x.jpg", MD5: "m"})
	require.NoError(t, err)
	_, err = env.actions.PerformAction(ctx, model.ActionLike, p.ID, viewer)
	require.NoError(t, err)
	_, err = env.actions.PerformAction(ctx, model.ActionFav, p.ID, viewer)
	require.NoError(t, err)
	// another user's love is not the viewer's
	_, err = env.actions.PerformAction(ctx, model.ActionLove, p.ID, author)
	require.NoError(t, err)

	res, err := env.timeline.GetTimeline(ctx, viewer, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)

	e := res.Entities[0]
	assert.Equal(t, model.Activity{
		UUID:    p.ID,
		Type:    model.PostTypePhoto,
		Content: "look",
		URL:     "https://cdn/x.jpg",
		Created: p.Created,
		MD5:     "m",
		IsLiked: true,
		IsLoved: false,
		IsFaved: true,
	}, e.Activity)
	require.NotNil(t, e.Actor)
	assert.Equal(t, model.Actor{UUID: author, Username: "author", Fullname: "Full author"}, *e.Actor)
}

func TestGetTimeline_DropsDanglingAndNilsMissingAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	viewer := env.user(t, "viewer")

	env.post(t, "orphan", "deleted-author", "still here")
	require.NoError(t, env.posts.Deliver(ctx, viewer, "orphan", 0))
	require.NoError(t, env.posts.Deliver(ctx, viewer, "vanished", 0))

	res, err := env.timeline.GetTimeline(ctx, viewer, 0, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "orphan", res.Entities[0].Activity.UUID)
	assert.Nil(t, res.Entities[0].Actor)
}

func TestGetTimelineByImportance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author, viewer := env.user(t, "author"), env.user(t, "viewer")
	env.follow(t, viewer, author)

	want := map[string]bool{}
	for i := 0; i < 3; i++ {
		p, err := env.publisher.CreateStatus(ctx, author, StatusInput{Content: "x"})
		require.NoError(t, err)
		want[p.ID] = true
	}

	for _, imp := range model.Importances {
		res, err := env.timeline.GetTimelineByImportance(ctx, viewer, imp, 0, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Count, imp)
		for _, id := range entityIDs(res) {
			assert.True(t, want[id])
		}
	}

	// the author's own ranked sets are not written on save
	res, err := env.timeline.GetTimelineByImportance(ctx, author, model.ImportancePersonal, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
}

func TestGetTimeline_EmptyPage(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.timeline.GetTimeline(context.Background(), "nobody", 0, 20)
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.NotNil(t, res.Entities)
}
