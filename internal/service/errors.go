package service

import (
	"github.com/d60-Lab/socialgraph/pkg/apperr"
)

var (
	ErrFollowSelf        = apperr.Conflict("cannot_follow", "Cannot follow yourself")
	ErrAlreadyFollowing  = apperr.Conflict("cannot_follow", "Already following this user")
	ErrUnfollowSelf      = apperr.Conflict("cannot_unfollow", "Cannot unfollow yourself")
	ErrNotFollowing      = apperr.Conflict("cannot_unfollow", "Not following this user")
	ErrUserNotFound      = apperr.NotFound("user_not_found", "User not found")
	ErrIncompleteRequest = apperr.Validation("incomplete_request", "Either uid or username is required", nil)

	ErrPostNotFound = apperr.NotFound("post_not_found", "Post not found")

	ErrUsernameTaken      = apperr.Conflict("cannot_register", "Username already registered")
	ErrInvalidCredentials = apperr.Unauthenticated("invalid_grant", "Invalid username or password")
	ErrAccountLocked      = apperr.RateLimited("account_locked", "Too many failed login attempts, try again later")
	ErrAccountDisabled    = apperr.Forbidden("account_disabled", "Account is disabled")
	ErrActivationNotFound = apperr.NotFound("activation_not_found", "Activation token is invalid or expired")
	ErrKeyNotFound        = apperr.NotFound("key_not_found", "Public key not found")
)
