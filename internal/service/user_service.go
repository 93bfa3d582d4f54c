package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
)

// UserService covers profile reads and the per-user filter and device lists.
type UserService interface {
	Profile(ctx context.Context, uid string) (*model.User, error)
	AddNegativeKeyword(ctx context.Context, uid, keyword string) (bool, error)
	BlockImage(ctx context.Context, uid, md5 string) (bool, error)
	Devices(ctx context.Context, uid string) ([]string, error)
	AddDevice(ctx context.Context, uid, device string) (bool, error)
	PublicKey(ctx context.Context, uid string) (string, error)
	SetPublicKey(ctx context.Context, uid, key string) error
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Profile(ctx context.Context, uid string) (*model.User, error) {
	u, err := s.users.FindByUID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Internal("load profile", err)
	}
	return u, nil
}

func (s *userService) AddNegativeKeyword(ctx context.Context, uid, keyword string) (bool, error) {
	added, err := s.users.AddNegativeKeyword(ctx, uid, keyword)
	if err != nil {
		return false, apperr.Internal("add negative keyword", err)
	}
	return added, nil
}

func (s *userService) BlockImage(ctx context.Context, uid, md5 string) (bool, error) {
	added, err := s.users.BlockImage(ctx, uid, md5)
	if err != nil {
		return false, apperr.Internal("block image", err)
	}
	return added, nil
}

func (s *userService) Devices(ctx context.Context, uid string) ([]string, error) {
	devices, err := s.users.Devices(ctx, uid)
	if err != nil {
		return nil, apperr.Internal("list devices", err)
	}
	return devices, nil
}

func (s *userService) AddDevice(ctx context.Context, uid, device string) (bool, error) {
	added, err := s.users.AddDevice(ctx, uid, device)
	if err != nil {
		return false, apperr.Internal("add device", err)
	}
	return added, nil
}

func (s *userService) PublicKey(ctx context.Context, uid string) (string, error) {
	key, err := s.users.PublicKey(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", apperr.Internal("load public key", err)
	}
	return key, nil
}

func (s *userService) SetPublicKey(ctx context.Context, uid, key string) error {
	if err := s.users.SetPublicKey(ctx, uid, key); err != nil {
		return apperr.Internal("store public key", err)
	}
	return nil
}
