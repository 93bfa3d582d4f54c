package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/events"
	"github.com/d60-Lab/socialgraph/internal/metrics"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// Target identifies the other side of a follow edge by uid or by username.
// UID wins when both are set.
type Target struct {
	UID      string
	Username string
}

type Member struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
}

type MembersResult struct {
	Members  []Member `json:"members"`
	Count    int      `json:"count"`
	Duration int64    `json:"duration"`
}

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, actorUID string, target Target) error
	Unfollow(ctx context.Context, actorUID string, target Target) error
	ListMembers(ctx context.Context, uid string, rel model.Relation) (*MembersResult, error)
}

type relationshipService struct {
	users      repository.UserRepository
	reconciler *CounterReconciler
	events     events.Publisher
}

func NewRelationshipService(users repository.UserRepository, reconciler *CounterReconciler, pub events.Publisher) RelationshipService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &relationshipService{users: users, reconciler: reconciler, events: pub}
}

func (s *relationshipService) Follow(ctx context.Context, actorUID string, target Target) error {
	if target.UID != "" && target.UID == actorUID {
		return s.fail("follow", ErrFollowSelf)
	}
	targetUID, err := s.resolve(ctx, target)
	if err != nil {
		return s.fail("follow", err)
	}
	if targetUID == actorUID {
		return s.fail("follow", ErrFollowSelf)
	}

	following, err := s.users.IsMember(ctx, targetUID, model.RelationFollowers, actorUID)
	if err != nil {
		return s.fail("follow", apperr.Internal("follow", err))
	}
	if following {
		return s.fail("follow", ErrAlreadyFollowing)
	}

	added, err := s.users.Link(ctx, targetUID, model.RelationFollowers, actorUID)
	if err != nil {
		return s.fail("follow", apperr.Internal("follow", err))
	}
	if !added {
		// 并发 follow 抢先写入：不重复计数，交给 reconciler 校正
		s.enqueue(actorUID, targetUID)
		return s.fail("follow", ErrAlreadyFollowing)
	}

	s.bump(ctx, targetUID, model.UserFieldFollowers, 1)
	s.bump(ctx, actorUID, model.UserFieldFollowing, 1)

	mutual, err := s.users.IsMember(ctx, actorUID, model.RelationFollowers, targetUID)
	if err != nil {
		return s.fail("follow", apperr.Internal("follow", err))
	}
	if mutual {
		if _, err := s.users.AddMember(ctx, actorUID, model.RelationFriends, targetUID); err != nil {
			return s.fail("follow", apperr.Internal("follow", err))
		}
		if _, err := s.users.AddMember(ctx, targetUID, model.RelationFriends, actorUID); err != nil {
			return s.fail("follow", apperr.Internal("follow", err))
		}
	}

	metrics.GraphMutations.WithLabelValues("follow", "ok").Inc()
	logger.Info("user followed", logger.UID(actorUID), zap.String("target", targetUID), zap.Bool("mutual", mutual))
	s.emit(ctx, model.EventFollowed, actorUID, targetUID)
	return nil
}

func (s *relationshipService) Unfollow(ctx context.Context, actorUID string, target Target) error {
	if target.UID != "" && target.UID == actorUID {
		return s.fail("unfollow", ErrUnfollowSelf)
	}
	targetUID, err := s.resolve(ctx, target)
	if err != nil {
		return s.fail("unfollow", err)
	}
	if targetUID == actorUID {
		return s.fail("unfollow", ErrUnfollowSelf)
	}

	following, err := s.users.IsMember(ctx, targetUID, model.RelationFollowers, actorUID)
	if err != nil {
		return s.fail("unfollow", apperr.Internal("unfollow", err))
	}
	if !following {
		return s.fail("unfollow", ErrNotFollowing)
	}

	removed, err := s.users.Unlink(ctx, targetUID, model.RelationFollowers, actorUID)
	if err != nil {
		return s.fail("unfollow", apperr.Internal("unfollow", err))
	}
	// friends 没有镜像集合，两侧分别删除
	for _, pair := range [][2]string{{actorUID, targetUID}, {targetUID, actorUID}} {
		if _, err := s.users.RemoveMember(ctx, pair[0], model.RelationFriends, pair[1]); err != nil {
			return s.fail("unfollow", apperr.Internal("unfollow", err))
		}
	}
	if !removed {
		s.enqueue(actorUID, targetUID)
		return s.fail("unfollow", ErrNotFollowing)
	}

	s.bump(ctx, targetUID, model.UserFieldFollowers, -1)
	s.bump(ctx, actorUID, model.UserFieldFollowing, -1)

	metrics.GraphMutations.WithLabelValues("unfollow", "ok").Inc()
	logger.Info("user unfollowed", logger.UID(actorUID), zap.String("target", targetUID))
	s.emit(ctx, model.EventUnfollowed, actorUID, targetUID)
	return nil
}

// ListMembers resolves every member of the set. Members whose identity can no
// longer be resolved are skipped. Order follows set enumeration and is not stable.
func (s *relationshipService) ListMembers(ctx context.Context, uid string, rel model.Relation) (*MembersResult, error) {
	start := time.Now()
	uids, err := s.users.Members(ctx, uid, rel)
	if err != nil {
		return nil, apperr.Internal("list members", err)
	}
	ids, err := s.users.Identities(ctx, uids)
	if err != nil {
		return nil, apperr.Internal("list members", err)
	}
	members := make([]Member, len(ids))
	for i, id := range ids {
		members[i] = Member{UID: id.UID, Username: id.Username, Fullname: id.Fullname}
	}
	return &MembersResult{Members: members, Count: len(members), Duration: time.Since(start).Milliseconds()}, nil
}

func (s *relationshipService) resolve(ctx context.Context, t Target) (string, error) {
	switch {
	case t.UID != "":
		_, err := s.users.UsernameByUID(ctx, t.UID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		if err != nil {
			return "", apperr.Internal("resolve user", err)
		}
		return t.UID, nil
	case t.Username != "":
		uid, err := s.users.UIDByUsername(ctx, t.Username)
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		if err != nil {
			return "", apperr.Internal("resolve user", err)
		}
		return uid, nil
	default:
		return "", ErrIncompleteRequest
	}
}

// bump applies a counter delta. Counters are advisory: a failure is logged and
// handed to the reconciler rather than failing the already-applied edge change.
func (s *relationshipService) bump(ctx context.Context, uid, field string, delta int64) {
	if _, err := s.users.IncrCounter(ctx, uid, field, delta); err != nil {
		logger.Warn("counter update failed", logger.UID(uid), zap.String("field", field), zap.Error(err))
		s.enqueue(uid)
	}
}

func (s *relationshipService) enqueue(uids ...string) {
	if s.reconciler != nil {
		s.reconciler.Enqueue(uids...)
	}
}

func (s *relationshipService) emit(ctx context.Context, typ model.EventType, actor, target string) {
	ev := model.Event{Type: typ, ActorUID: actor, TargetUID: target, At: time.Now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		logger.Warn("publish event failed", zap.String("type", string(typ)), zap.Error(err))
	}
}

func (s *relationshipService) fail(op string, err error) error {
	metrics.GraphMutations.WithLabelValues(op, apperr.As(err).Code).Inc()
	return err
}
