package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// PostRepository stores post hashes, per-user timelines and per-post action
// lists and flags.
type PostRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Find(ctx context.Context, id string) (*model.Post, error)
	FindMany(ctx context.Context, ids []string) (map[string]*model.Post, error)
	Save(ctx context.Context, p *model.Post) error

	Deliver(ctx context.Context, uid, postID string, score float64) error
	Timeline(ctx context.Context, uid string, offset, limit int) ([]string, error)
	TimelineByImportance(ctx context.Context, uid string, imp model.Importance, offset, limit int) ([]string, error)

	SetActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error)
	ClearActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error)
	HasActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error)
	PushActor(ctx context.Context, a model.Action, postID, actor string) (int64, error)
	RemoveActor(ctx context.Context, a model.Action, postID, actor string) (int64, error)
	Actors(ctx context.Context, a model.Action, postID string, offset, limit int) ([]string, error)
	IncrActionCounter(ctx context.Context, a model.Action, postID string, delta int64) error
}

type postRepository struct {
	rdb       redis.Cmdable
	maxLength int64
}

// NewPostRepository returns a repository whose timelines are trimmed to
// maxLength entries on every write; 0 leaves them unbounded.
func NewPostRepository(rdb redis.Cmdable, maxLength int64) PostRepository {
	return &postRepository{rdb: rdb, maxLength: maxLength}
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Exists(ctx, postKey(id)).Result()
	return n > 0, err
}

func (r *postRepository) Find(ctx context.Context, id string) (*model.Post, error) {
	m, err := r.rdb.HGetAll(ctx, postKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return model.PostFromMap(m), nil
}

// FindMany loads posts in one pipeline. Missing ids are absent from the result.
func (r *postRepository) FindMany(ctx context.Context, ids []string) (map[string]*model.Post, error) {
	out := make(map[string]*model.Post, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, postKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	for i, cmd := range cmds {
		if m := cmd.Val(); len(m) > 0 {
			out[ids[i]] = model.PostFromMap(m)
		}
	}
	return out, nil
}

// Save persists the post hash, pushes it onto the author's own timeline and
// bumps the author's media counters.
func (r *postRepository) Save(ctx context.Context, p *model.Post) error {
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, postKey(p.ID), p.ToMap())
	pipe.LPush(ctx, timelineKey(p.UID), p.ID)
	var evicted *redis.StringSliceCmd
	if r.maxLength > 0 {
		evicted = pipe.LRange(ctx, timelineKey(p.UID), r.maxLength, -1)
		pipe.LTrim(ctx, timelineKey(p.UID), 0, r.maxLength-1)
	}
	switch p.Type {
	case model.PostTypePhoto:
		pipe.HIncrBy(ctx, photosKey, p.UID, 1)
	case model.PostTypeVideo:
		pipe.HIncrBy(ctx, videosKey, p.UID, 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if evicted == nil || len(evicted.Val()) == 0 {
		return nil
	}
	return r.dropRanked(ctx, p.UID, evicted.Val())
}

// Deliver writes postID into all three timeline structures of uid. The
// writes share a pipeline but are not transactional. With a retention limit
// the ranked sets drop exactly the ids that fall off the FIFO list.
func (r *postRepository) Deliver(ctx context.Context, uid, postID string, score float64) error {
	list := timelineKey(uid)
	pipe := r.rdb.Pipeline()
	pipe.LPush(ctx, list, postID)
	var evicted *redis.StringSliceCmd
	if r.maxLength > 0 {
		evicted = pipe.LRange(ctx, list, r.maxLength, -1)
		pipe.LTrim(ctx, list, 0, r.maxLength-1)
	}
	for _, imp := range model.Importances {
		pipe.ZAdd(ctx, importanceKey(uid, imp), redis.Z{Score: score, Member: postID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if evicted == nil || len(evicted.Val()) == 0 {
		return nil
	}
	return r.dropRanked(ctx, uid, evicted.Val())
}

// dropRanked removes trimmed ids from the ranked sets. An id that is still in
// the list because it was delivered again stays ranked.
func (r *postRepository) dropRanked(ctx context.Context, uid string, ids []string) error {
	list := timelineKey(uid)
	gone := make([]any, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		_, err := r.rdb.LPos(ctx, list, id, redis.LPosArgs{}).Result()
		if errors.Is(err, redis.Nil) {
			gone = append(gone, id)
			continue
		}
		if err != nil {
			return fmt.Errorf("lpos %s: %w", id, err)
		}
	}
	if len(gone) == 0 {
		return nil
	}
	pipe := r.rdb.Pipeline()
	for _, imp := range model.Importances {
		pipe.ZRem(ctx, importanceKey(uid, imp), gone...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *postRepository) Timeline(ctx context.Context, uid string, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.rdb.LRange(ctx, timelineKey(uid), int64(offset), int64(offset+limit-1)).Result()
}

func (r *postRepository) TimelineByImportance(ctx context.Context, uid string, imp model.Importance, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.rdb.ZRange(ctx, importanceKey(uid, imp), int64(offset), int64(offset+limit-1)).Result()
}

// SetActionFlag sets the flag only if absent and reports whether this call set it.
func (r *postRepository) SetActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error) {
	return r.rdb.HSetNX(ctx, actionFlagKey(postID, actor), a.Noun(), "1").Result()
}

func (r *postRepository) ClearActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error) {
	n, err := r.rdb.HDel(ctx, actionFlagKey(postID, actor), a.Noun()).Result()
	return n > 0, err
}

func (r *postRepository) HasActionFlag(ctx context.Context, a model.Action, postID, actor string) (bool, error) {
	ok, err := r.rdb.HExists(ctx, actionFlagKey(postID, actor), a.Noun()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return ok, err
}

func (r *postRepository) PushActor(ctx context.Context, a model.Action, postID, actor string) (int64, error) {
	return r.rdb.LPush(ctx, actionListKey(postID, a), actor).Result()
}

// RemoveActor removes every occurrence of actor and returns how many were removed.
func (r *postRepository) RemoveActor(ctx context.Context, a model.Action, postID, actor string) (int64, error) {
	return r.rdb.LRem(ctx, actionListKey(postID, a), 0, actor).Result()
}

func (r *postRepository) Actors(ctx context.Context, a model.Action, postID string, offset, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	return r.rdb.LRange(ctx, actionListKey(postID, a), int64(offset), int64(offset+limit-1)).Result()
}

func (r *postRepository) IncrActionCounter(ctx context.Context, a model.Action, postID string, delta int64) error {
	return r.rdb.HIncrBy(ctx, postKey(postID), counterField(a), delta).Err()
}
