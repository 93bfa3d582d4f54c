package model

import (
	"strconv"
	"strings"
)

// PostType is the media kind of a post.
type PostType string

const (
	PostTypeText  PostType = "text"
	PostTypePhoto PostType = "photo"
	PostTypeVideo PostType = "video"
)

// ParsePostType maps s onto a known type, defaulting to text.
func ParsePostType(s string) PostType {
	switch PostType(strings.ToLower(s)) {
	case PostTypePhoto:
		return PostTypePhoto
	case PostTypeVideo:
		return PostTypeVideo
	default:
		return PostTypeText
	}
}

// Post is a status update. The action counters are denormalized and advisory;
// the per-action actor lists are authoritative.
type Post struct {
	ID      string   `json:"id"`
	UID     string   `json:"uid"`
	Type    PostType `json:"type"`
	Content string   `json:"content,omitempty"`
	URL     string   `json:"url,omitempty"`
	MD5     string   `json:"md5,omitempty"`
	Created int64    `json:"created"`

	Likes  int64 `json:"likes"`
	Loves  int64 `json:"loves"`
	Favs   int64 `json:"favs"`
	Shares int64 `json:"shares"`
}

// ToMap returns the hash representation stored at post:<id>. Empty optional
// fields and the advisory counters are omitted.
func (p *Post) ToMap() map[string]string {
	m := map[string]string{
		"id":      p.ID,
		"uid":     p.UID,
		"type":    string(p.Type),
		"created": strconv.FormatInt(p.Created, 10),
	}
	if p.Content != "" {
		m["content"] = p.Content
	}
	if p.URL != "" {
		m["url"] = p.URL
	}
	if p.MD5 != "" {
		m["md5"] = p.MD5
	}
	return m
}

// PostFromMap rebuilds a Post from its hash. Unparseable numbers read as zero.
func PostFromMap(m map[string]string) *Post {
	return &Post{
		ID:      m["id"],
		UID:     m["uid"],
		Type:    ParsePostType(m["type"]),
		Content: m["content"],
		URL:     m["url"],
		MD5:     m["md5"],
		Created: parseInt(m["created"]),
		Likes:   parseInt(m["likes"]),
		Loves:   parseInt(m["loves"]),
		Favs:    parseInt(m["favs"]),
		Shares:  parseInt(m["shares"]),
	}
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
