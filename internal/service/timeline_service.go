package service

import (
	"context"
	"time"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
)

type TimelineResult struct {
	Entities []model.TimelineEntity `json:"entities"`
	Count    int                    `json:"count"`
	Duration int64                  `json:"duration"`
}

// TimelineService 读扩散部分：按页读取 timeline 并拼装 post、动作标记与作者信息。
type TimelineService interface {
	GetTimeline(ctx context.Context, viewerUID string, offset, limit int) (*TimelineResult, error)
	GetTimelineByImportance(ctx context.Context, viewerUID string, imp model.Importance, offset, limit int) (*TimelineResult, error)
}

type timelineService struct {
	posts   repository.PostRepository
	users   repository.UserRepository
	actions ActionService
}

func NewTimelineService(posts repository.PostRepository, users repository.UserRepository, actions ActionService) TimelineService {
	return &timelineService{posts: posts, users: users, actions: actions}
}

func (s *timelineService) GetTimeline(ctx context.Context, viewerUID string, offset, limit int) (*TimelineResult, error) {
	start := time.Now()
	ids, err := s.posts.Timeline(ctx, viewerUID, offset, limit)
	if err != nil {
		return nil, apperr.Internal("read timeline", err)
	}
	return s.compose(ctx, viewerUID, ids, start)
}

// GetTimelineByImportance reads a page of the ranked set in ascending score
// order. Ties follow the store's member ordering.
func (s *timelineService) GetTimelineByImportance(ctx context.Context, viewerUID string, imp model.Importance, offset, limit int) (*TimelineResult, error) {
	start := time.Now()
	ids, err := s.posts.TimelineByImportance(ctx, viewerUID, imp, offset, limit)
	if err != nil {
		return nil, apperr.Internal("read timeline", err)
	}
	return s.compose(ctx, viewerUID, ids, start)
}

// compose keeps the page order. Dangling post ids are dropped; an author that
// cannot be resolved yields a nil actor.
func (s *timelineService) compose(ctx context.Context, viewerUID string, ids []string, start time.Time) (*TimelineResult, error) {
	posts, err := s.posts.FindMany(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("load posts", err)
	}

	authors := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.UID]; ok || p.UID == "" {
			continue
		}
		seen[p.UID] = struct{}{}
		authors = append(authors, p.UID)
	}
	identities, err := s.users.Identities(ctx, authors)
	if err != nil {
		return nil, apperr.Internal("resolve authors", err)
	}
	actors := make(map[string]*model.Actor, len(identities))
	for _, id := range identities {
		actors[id.UID] = &model.Actor{UUID: id.UID, Username: id.Username, Fullname: id.Fullname}
	}

	entities := make([]model.TimelineEntity, 0, len(ids))
	for _, id := range ids {
		p, ok := posts[id]
		if !ok {
			continue
		}
		entities = append(entities, model.TimelineEntity{
			Activity: model.Activity{
				UUID:    id,
				Type:    p.Type,
				Content: p.Content,
				URL:     p.URL,
				Created: p.Created,
				MD5:     p.MD5,
				IsLiked: s.actions.HasAction(ctx, model.ActionLike, id, viewerUID),
				IsLoved: s.actions.HasAction(ctx, model.ActionLove, id, viewerUID),
				IsFaved: s.actions.HasAction(ctx, model.ActionFav, id, viewerUID),
			},
			Actor: actors[p.UID],
		})
	}
	return &TimelineResult{Entities: entities, Count: len(entities), Duration: time.Since(start).Milliseconds()}, nil
}
