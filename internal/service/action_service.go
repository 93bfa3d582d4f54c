package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/metrics"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// ActionResult is a single-entry map keyed by outcome, e.g.
// {"likedPost": id}, {"alreadyLikedPost": id} or {"cannotUnlike": "not liked"}.
type ActionResult map[string]string

type ActionActor struct {
	Type        string `json:"type"`
	UUID        string `json:"uuid"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type ActionList struct {
	Object   string        `json:"object"`
	Actors   []ActionActor `json:"actors"`
	Count    int           `json:"count"`
	Duration int64         `json:"duration"`
}

// ActionService toggles like/love/fav/share on posts. The per-(post, actor)
// flag decides whether an action is new; the actor list only orders and
// counts.
type ActionService interface {
	PerformAction(ctx context.Context, a model.Action, postID, actorUID string) (ActionResult, error)
	ReverseAction(ctx context.Context, a model.Action, postID, actorUID string) (ActionResult, error)
	ListActions(ctx context.Context, a model.Action, postID string, offset, limit int) (*ActionList, error)
	HasAction(ctx context.Context, a model.Action, postID, actorUID string) bool
}

type actionService struct {
	posts repository.PostRepository
	users repository.UserRepository
}

func NewActionService(posts repository.PostRepository, users repository.UserRepository) ActionService {
	return &actionService{posts: posts, users: users}
}

func (s *actionService) PerformAction(ctx context.Context, a model.Action, postID, actorUID string) (ActionResult, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	set, err := s.posts.SetActionFlag(ctx, a, postID, actorUID)
	if err != nil {
		return nil, apperr.Internal(a.Noun()+" post", err)
	}
	if !set {
		metrics.ActionToggles.WithLabelValues(a.Noun(), "perform", "already").Inc()
		return ActionResult{"already" + capitalize(a.PastTense()) + "Post": postID}, nil
	}

	if _, err := s.posts.PushActor(ctx, a, postID, actorUID); err != nil {
		// 回滚 flag，保证下次重试仍能写入列表
		if _, cerr := s.posts.ClearActionFlag(ctx, a, postID, actorUID); cerr != nil {
			logger.Error("rollback action flag failed", logger.PostID(postID), logger.UID(actorUID), zap.Error(cerr))
		}
		return nil, apperr.Internal(a.Noun()+" post", err)
	}
	s.count(ctx, a, postID, 1)

	metrics.ActionToggles.WithLabelValues(a.Noun(), "perform", "ok").Inc()
	logger.Debug("action performed", logger.UID(actorUID), logger.PostID(postID), zap.String("action", a.Noun()))
	return ActionResult{a.PastTense() + "Post": postID}, nil
}

func (s *actionService) ReverseAction(ctx context.Context, a model.Action, postID, actorUID string) (ActionResult, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	removed, err := s.posts.RemoveActor(ctx, a, postID, actorUID)
	if err != nil {
		return nil, apperr.Internal("un"+a.Noun()+" post", err)
	}
	cleared, err := s.posts.ClearActionFlag(ctx, a, postID, actorUID)
	if err != nil {
		return nil, apperr.Internal("un"+a.Noun()+" post", err)
	}
	if removed == 0 && !cleared {
		metrics.ActionToggles.WithLabelValues(a.Noun(), "reverse", "noop").Inc()
		return ActionResult{"cannotUn" + a.Noun(): "not " + a.PastTense()}, nil
	}
	s.count(ctx, a, postID, -1)

	metrics.ActionToggles.WithLabelValues(a.Noun(), "reverse", "ok").Inc()
	return ActionResult{"un" + a.PastTense() + "Post": postID}, nil
}

// ListActions returns a most-recent-first page of actors. Actors whose
// identity no longer resolves are listed by uuid only.
func (s *actionService) ListActions(ctx context.Context, a model.Action, postID string, offset, limit int) (*ActionList, error) {
	start := time.Now()
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	uids, err := s.posts.Actors(ctx, a, postID, offset, limit)
	if err != nil {
		return nil, apperr.Internal("list "+a.Plural(), err)
	}
	ids, err := s.users.Identities(ctx, uids)
	if err != nil {
		return nil, apperr.Internal("list "+a.Plural(), err)
	}
	byUID := make(map[string]model.Identity, len(ids))
	for _, id := range ids {
		byUID[id.UID] = id
	}

	actors := make([]ActionActor, len(uids))
	for i, uid := range uids {
		id := byUID[uid]
		actors[i] = ActionActor{Type: "person", UUID: uid, Username: id.Username, DisplayName: id.Fullname}
	}
	return &ActionList{Object: postID, Actors: actors, Count: len(actors), Duration: time.Since(start).Milliseconds()}, nil
}

// HasAction never fails: storage errors are logged and read as false.
func (s *actionService) HasAction(ctx context.Context, a model.Action, postID, actorUID string) bool {
	ok, err := s.posts.HasActionFlag(ctx, a, postID, actorUID)
	if err != nil {
		logger.Warn("action flag lookup failed", logger.PostID(postID), logger.UID(actorUID), zap.Error(err))
		return false
	}
	return ok
}

func (s *actionService) requirePost(ctx context.Context, postID string) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return apperr.Internal("load post", err)
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}

// count maintains the advisory counter on the post hash.
func (s *actionService) count(ctx context.Context, a model.Action, postID string, delta int64) {
	if err := s.posts.IncrActionCounter(ctx, a, postID, delta); err != nil {
		logger.Warn("action counter update failed", logger.PostID(postID), zap.String("action", a.Noun()), zap.Error(err))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
