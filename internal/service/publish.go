package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/internal/events"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// StatusInput is a new post as submitted by its author.
type StatusInput struct {
	Content string
	Type    string
	URL     string
	MD5     string
}

// Publisher 负责落地 post 并触发写扩散
type Publisher struct {
	posts  repository.PostRepository
	fanout *Fanout
	events events.Publisher
	now    func() time.Time
}

func NewPublisher(posts repository.PostRepository, fanout *Fanout, pub events.Publisher) *Publisher {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Publisher{posts: posts, fanout: fanout, events: pub, now: time.Now}
}

// CreateStatus persists a new post for authorUID and fans it out to the
// author's followers.
func (p *Publisher) CreateStatus(ctx context.Context, authorUID string, in StatusInput) (*model.Post, error) {
	post := &model.Post{
		ID:      uuid.NewString(),
		UID:     authorUID,
		Type:    model.ParsePostType(in.Type),
		Content: in.Content,
		URL:     in.URL,
		MD5:     in.MD5,
		Created: p.now().Unix(),
	}
	if err := p.posts.Save(ctx, post); err != nil {
		return nil, apperr.Internal("save post", err)
	}

	res, err := p.fanout.Deliver(ctx, authorUID, post, Words(post.Content))
	if err != nil {
		logger.Error("fanout failed", logger.PostID(post.ID), logger.UID(authorUID),
			zap.Int("delivered", res.Delivered), zap.Int("followers", res.Followers), zap.Error(err))
		return nil, apperr.Internal("fanout", err)
	}
	logger.Debug("status created", logger.PostID(post.ID), logger.UID(authorUID),
		zap.Int("delivered", res.Delivered), zap.Int("suppressed", res.Suppressed), zap.Duration("elapsed", res.Elapsed))

	p.emit(ctx, model.Event{Type: model.EventStatusCreated, ActorUID: authorUID, PostID: post.ID, Delivered: res.Delivered})
	return post, nil
}

// ReshareStatus pushes an existing post to actorUID's followers. The original
// content is re-tokenized for keyword suppression and no new post is created,
// so the same id may appear several times in one timeline. A missing post is
// a silent no-op and yields (nil, nil).
func (p *Publisher) ReshareStatus(ctx context.Context, actorUID, postID string) (*model.Post, error) {
	post, err := p.posts.Find(ctx, postID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("load post", err)
	}

	res, err := p.fanout.Deliver(ctx, actorUID, post, Words(post.Content))
	if err != nil {
		logger.Error("reshare fanout failed", logger.PostID(postID), logger.UID(actorUID),
			zap.Int("delivered", res.Delivered), zap.Error(err))
		return nil, apperr.Internal("fanout", err)
	}

	p.emit(ctx, model.Event{Type: model.EventStatusReshared, ActorUID: actorUID, TargetUID: post.UID, PostID: postID, Delivered: res.Delivered})
	return post, nil
}

func (p *Publisher) emit(ctx context.Context, ev model.Event) {
	ev.At = p.now().UTC()
	if err := p.events.Publish(ctx, ev); err != nil {
		logger.Warn("publish event failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
