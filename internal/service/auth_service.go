package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/config"
	"github.com/d60-Lab/socialgraph/internal/model"
	"github.com/d60-Lab/socialgraph/internal/repository"
	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/jwt"
	"github.com/d60-Lab/socialgraph/pkg/logger"
	"github.com/d60-Lab/socialgraph/pkg/password"
)

type RegisterInput struct {
	Username string
	Password string
	Email    string
	Fullname string
}

type AuthResult struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`

	// ActivationToken is set by Register only; it is delivered out of band.
	ActivationToken string `json:"-"`
}

// AuthService issues, verifies and revokes bearer credentials.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, secret string) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	Activate(ctx context.Context, activationToken string) error
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

type authService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	jwt    *jwt.Manager
	hasher *password.Hasher
	login  config.LoginConfig
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens repository.TokenRepository, jm *jwt.Manager, hasher *password.Hasher, login config.LoginConfig) AuthService {
	if hasher == nil {
		hasher = password.Default()
	}
	return &authService{users: users, tokens: tokens, jwt: jm, hasher: hasher, login: login, now: time.Now}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	salt, err := password.Salt()
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	hash, err := s.hasher.Hash(salt + in.Password)
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	u := &model.User{
		UID:          uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		Fullname:     in.Fullname,
		PasswordHash: hash,
		Salt:         salt,
		Poly:         uuid.NewString(),
		PolyCount:    1,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, apperr.Internal("register", err)
	}

	activation := uuid.NewString()
	if err := s.tokens.SaveActivation(ctx, activation, u.UID, s.login.ActivationTTL); err != nil {
		return nil, apperr.Internal("register", err)
	}

	token, err := s.jwt.Issue(u.UID, u.Username, u.Email)
	if err != nil {
		return nil, apperr.Internal("register", err)
	}
	logger.Info("user registered", logger.UID(u.UID), zap.String("username", u.Username))
	return &AuthResult{
		UID:             u.UID,
		Username:        u.Username,
		Token:           token,
		ExpiresIn:       int64(s.jwt.Expiration().Seconds()),
		ActivationToken: activation,
	}, nil
}

// Login verifies the password. Repeated failures inside the lockout window
// lock the username out until the window expires.
func (s *authService) Login(ctx context.Context, username, secret string) (*AuthResult, error) {
	if s.login.MaxFailures > 0 {
		n, err := s.tokens.LoginFailures(ctx, username)
		if err != nil {
			return nil, apperr.Internal("login", err)
		}
		if n >= s.login.MaxFailures {
			return nil, ErrAccountLocked
		}
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.failLogin(ctx, username)
	}
	if err != nil {
		return nil, apperr.Internal("login", err)
	}
	ok, err := s.hasher.Verify(u.Salt+secret, u.PasswordHash)
	if err != nil {
		logger.Error("stored password hash unreadable", logger.UID(u.UID), zap.Error(err))
	}
	if !ok {
		return nil, s.failLogin(ctx, username)
	}
	if u.Disabled {
		return nil, ErrAccountDisabled
	}

	if err := s.tokens.ResetLoginFailures(ctx, username); err != nil {
		logger.Warn("reset login failures", zap.String("username", username), zap.Error(err))
	}
	if _, err := s.users.IncrCounter(ctx, u.UID, model.UserFieldPolyCount, 1); err != nil {
		return nil, apperr.Internal("login", err)
	}
	token, err := s.jwt.Issue(u.UID, u.Username, u.Email)
	if err != nil {
		return nil, apperr.Internal("login", err)
	}
	logger.Info("user logged in", logger.UID(u.UID))
	return &AuthResult{
		UID:       u.UID,
		Username:  u.Username,
		Token:     token,
		ExpiresIn: int64(s.jwt.Expiration().Seconds()),
		Followers: u.Followers,
		Following: u.Following,
	}, nil
}

func (s *authService) failLogin(ctx context.Context, username string) error {
	if s.login.MaxFailures <= 0 {
		return ErrInvalidCredentials
	}
	n, err := s.tokens.RecordLoginFailure(ctx, username, s.login.LockoutWindow)
	if err != nil {
		return apperr.Internal("login", err)
	}
	if n >= s.login.MaxFailures {
		logger.Warn("login locked out", zap.String("username", username), zap.Int64("failures", n))
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}

// Logout revokes token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return apperr.Unauthenticated("invalid_token", "Invalid or expired token")
	}
	if err := s.tokens.Blacklist(ctx, token, s.jwt.TTL(claims)); err != nil {
		return apperr.Internal("logout", err)
	}
	logger.Info("token revoked", logger.UID(claims.UID))
	return nil
}

func (s *authService) Activate(ctx context.Context, activationToken string) error {
	uid, err := s.tokens.ActivationUID(ctx, activationToken)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrActivationNotFound
	}
	if err != nil {
		return apperr.Internal("activate", err)
	}
	if err := s.users.SetField(ctx, uid, model.UserFieldActivated, "true"); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActivationNotFound
		}
		return apperr.Internal("activate", err)
	}
	if err := s.tokens.DeleteActivation(ctx, activationToken); err != nil {
		logger.Warn("delete activation token", logger.UID(uid), zap.Error(err))
	}
	logger.Info("account activated", logger.UID(uid))
	return nil
}

// Authenticate turns a bearer token into the verified caller identity.
func (s *authService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, apperr.Unauthenticated("token_expired", "Token has expired")
		}
		return nil, apperr.Unauthenticated("invalid_token", "Invalid or expired token")
	}
	revoked, err := s.tokens.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, apperr.Internal("authenticate", err)
	}
	if revoked {
		return nil, apperr.Unauthenticated("token_revoked", "Token has been revoked")
	}
	return claims, nil
}
