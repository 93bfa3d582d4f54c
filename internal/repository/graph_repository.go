package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// UserRepository stores accounts, the uid<->username index and every
// per-user relationship set and block-list.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByUID(ctx context.Context, uid string) (*model.User, error)
	UsernameByUID(ctx context.Context, uid string) (string, error)
	UIDByUsername(ctx context.Context, username string) (string, error)
	SetField(ctx context.Context, uid, field, value string) error
	IncrCounter(ctx context.Context, uid, field string, delta int64) (int64, error)
	AllUIDs(ctx context.Context) ([]string, error)
	Identities(ctx context.Context, uids []string) ([]model.Identity, error)

	AddMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error)
	RemoveMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error)
	Link(ctx context.Context, uid string, rel model.Relation, member string) (bool, error)
	Unlink(ctx context.Context, uid string, rel model.Relation, member string) (bool, error)
	IsMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error)
	Members(ctx context.Context, uid string, rel model.Relation) ([]string, error)
	MemberCount(ctx context.Context, uid string, rel model.Relation) (int64, error)

	AddNegativeKeyword(ctx context.Context, uid, keyword string) (bool, error)
	HasAnyNegativeKeyword(ctx context.Context, uid string, tokens []string) (bool, error)
	BlockImage(ctx context.Context, uid, md5 string) (bool, error)
	IsImageBlocked(ctx context.Context, uid, md5 string) (bool, error)
	AddDevice(ctx context.Context, uid, device string) (bool, error)
	Devices(ctx context.Context, uid string) ([]string, error)
	PublicKey(ctx context.Context, uid string) (string, error)
	SetPublicKey(ctx context.Context, uid, key string) error
}

type userRepository struct {
	rdb redis.Cmdable
}

func NewUserRepository(rdb redis.Cmdable) UserRepository { return &userRepository{rdb: rdb} }

// Create claims the username with HSETNX on the uuid field, then writes the
// remaining fields and the uid index.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	key := userKey(u.Username)
	ok, err := r.rdb.HSetNX(ctx, key, model.UserFieldUID, u.UID).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrUsernameTaken
	}
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, u.ToMap())
	pipe.HSet(ctx, uidIndexKey, u.UID, u.Username)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	m, err := r.rdb.HGetAll(ctx, userKey(username)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	u := model.UserFromMap(m)
	u.Username = username
	return u, nil
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	username, err := r.UsernameByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	return r.FindByUsername(ctx, username)
}

func (r *userRepository) UsernameByUID(ctx context.Context, uid string) (string, error) {
	username, err := r.rdb.HGet(ctx, uidIndexKey, uid).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return username, err
}

func (r *userRepository) UIDByUsername(ctx context.Context, username string) (string, error) {
	uid, err := r.rdb.HGet(ctx, userKey(username), model.UserFieldUID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return uid, err
}

func (r *userRepository) SetField(ctx context.Context, uid, field, value string) error {
	username, err := r.UsernameByUID(ctx, uid)
	if err != nil {
		return err
	}
	return r.rdb.HSet(ctx, userKey(username), field, value).Err()
}

// IncrCounter adds delta to a numeric field of the user's hash and returns the new value.
func (r *userRepository) IncrCounter(ctx context.Context, uid, field string, delta int64) (int64, error) {
	username, err := r.UsernameByUID(ctx, uid)
	if err != nil {
		return 0, err
	}
	return r.rdb.HIncrBy(ctx, userKey(username), field, delta).Result()
}

func (r *userRepository) AllUIDs(ctx context.Context) ([]string, error) {
	return r.rdb.HKeys(ctx, uidIndexKey).Result()
}

// Identities resolves uids in two pipelined round trips, preserving input
// order. Dangling uids are skipped.
func (r *userRepository) Identities(ctx context.Context, uids []string) ([]model.Identity, error) {
	if len(uids) == 0 {
		return []model.Identity{}, nil
	}

	pipe := r.rdb.Pipeline()
	names := make([]*redis.StringCmd, len(uids))
	for i, uid := range uids {
		names[i] = pipe.HGet(ctx, uidIndexKey, uid)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}

	out := make([]model.Identity, 0, len(uids))
	pipe = r.rdb.Pipeline()
	fullnames := make([]*redis.StringCmd, 0, len(uids))
	for i, cmd := range names {
		username, err := cmd.Result()
		if err != nil {
			continue
		}
		out = append(out, model.Identity{UID: uids[i], Username: username})
		fullnames = append(fullnames, pipe.HGet(ctx, userKey(username), model.UserFieldFullname))
	}
	if len(out) == 0 {
		return out, nil
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("resolve fullnames: %w", err)
	}
	for i, cmd := range fullnames {
		out[i].Fullname = cmd.Val()
	}
	return out, nil
}

func (r *userRepository) AddMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	n, err := r.rdb.SAdd(ctx, relationKey(uid, rel), member).Result()
	return n == 1, err
}

func (r *userRepository) RemoveMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	n, err := r.rdb.SRem(ctx, relationKey(uid, rel), member).Result()
	return n == 1, err
}

// Link adds member to uid's rel set and, when rel has a mirror, uid to the
// member's mirrored set. The result reports the forward write only.
func (r *userRepository) Link(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	added, err := r.AddMember(ctx, uid, rel, member)
	if err != nil {
		return false, err
	}
	if m, ok := rel.Mirror(); ok {
		if _, err := r.AddMember(ctx, member, m, uid); err != nil {
			return added, err
		}
	}
	return added, nil
}

// Unlink is the inverse of Link.
func (r *userRepository) Unlink(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	removed, err := r.RemoveMember(ctx, uid, rel, member)
	if err != nil {
		return false, err
	}
	if m, ok := rel.Mirror(); ok {
		if _, err := r.RemoveMember(ctx, member, m, uid); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (r *userRepository) IsMember(ctx context.Context, uid string, rel model.Relation, member string) (bool, error) {
	return r.rdb.SIsMember(ctx, relationKey(uid, rel), member).Result()
}

func (r *userRepository) Members(ctx context.Context, uid string, rel model.Relation) ([]string, error) {
	return r.rdb.SMembers(ctx, relationKey(uid, rel)).Result()
}

func (r *userRepository) MemberCount(ctx context.Context, uid string, rel model.Relation) (int64, error) {
	return r.rdb.SCard(ctx, relationKey(uid, rel)).Result()
}

func (r *userRepository) AddNegativeKeyword(ctx context.Context, uid, keyword string) (bool, error) {
	return r.rdb.HSetNX(ctx, negativeKeywordsKey(uid), keyword, keyword).Result()
}

// HasAnyNegativeKeyword reports whether any token is on uid's block-list.
// Matching is exact and case-sensitive.
func (r *userRepository) HasAnyNegativeKeyword(ctx context.Context, uid string, tokens []string) (bool, error) {
	if len(tokens) == 0 {
		return false, nil
	}
	vals, err := r.rdb.HMGet(ctx, negativeKeywordsKey(uid), tokens...).Result()
	if err != nil {
		return false, err
	}
	for _, v := range vals {
		if v != nil {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepository) BlockImage(ctx context.Context, uid, md5 string) (bool, error) {
	return r.rdb.HSetNX(ctx, blockedImagesKey(uid), md5, md5).Result()
}

func (r *userRepository) IsImageBlocked(ctx context.Context, uid, md5 string) (bool, error) {
	return r.rdb.HExists(ctx, blockedImagesKey(uid), md5).Result()
}

func (r *userRepository) AddDevice(ctx context.Context, uid, device string) (bool, error) {
	n, err := r.rdb.SAdd(ctx, devicesKey(uid), device).Result()
	return n == 1, err
}

func (r *userRepository) Devices(ctx context.Context, uid string) ([]string, error) {
	return r.rdb.SMembers(ctx, devicesKey(uid)).Result()
}

func (r *userRepository) PublicKey(ctx context.Context, uid string) (string, error) {
	key, err := r.rdb.HGet(ctx, cryptoKey(uid), "publicKey").Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return key, err
}

func (r *userRepository) SetPublicKey(ctx context.Context, uid, key string) error {
	return r.rdb.HSet(ctx, cryptoKey(uid), "publicKey", key).Err()
}
