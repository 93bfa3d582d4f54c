package repository

import (
	"errors"

	"github.com/d60-Lab/socialgraph/internal/model"
)

// ErrNotFound is returned when a hash or mapping the caller asked for is absent.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned by Create when the username is already claimed.
var ErrUsernameTaken = errors.New("username taken")

const (
	userPrefix   = "user:"
	postPrefix   = "post:"
	uidIndexKey  = "user:uid"
	photosKey    = "photos"
	videosKey    = "videos"
	blacklistKey = "tokens:blacklist:"
	activateKey  = "user:activations:"
	loginFailKey = "login:failures:"
)

func userKey(username string) string { return userPrefix + username }

func relationKey(uid string, rel model.Relation) string {
	return userPrefix + uid + ":" + rel.String()
}

func negativeKeywordsKey(uid string) string { return userPrefix + uid + ":negative:keywords" }

func blockedImagesKey(uid string) string { return userPrefix + uid + ":images:blocked:md5" }

func cryptoKey(uid string) string { return userPrefix + uid + ":crypto" }

func devicesKey(uid string) string { return userPrefix + uid + ":devices" }

func timelineKey(uid string) string { return userPrefix + uid + ":timeline" }

func importanceKey(uid string, imp model.Importance) string {
	return userPrefix + uid + ":timeline:" + string(imp) + ":importance"
}

func postKey(id string) string { return postPrefix + id }

func actionListKey(postID string, a model.Action) string { return postPrefix + postID + a.Key() }

// actionFlagKey is the per-(post, actor) flag hash; the field is the action noun.
func actionFlagKey(postID, actor string) string { return postPrefix + postID + ":" + actor + ":" }

// counterField is the advisory counter field on the post hash, e.g. "likes".
func counterField(a model.Action) string { return a.Key()[1:] }

func toArgs(strs []string) []interface{} {
	out := make([]interface{}, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}
