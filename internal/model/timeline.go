package model

import "fmt"

// Importance selects one of the per-viewer score-ordered timeline sets.
type Importance string

const (
	ImportancePersonal Importance = "personal"
	ImportanceEveryone Importance = "everyone"
)

// Importances lists both ranked views; fan-out writes to each of them.
var Importances = []Importance{ImportancePersonal, ImportanceEveryone}

func ParseImportance(s string) (Importance, error) {
	switch Importance(s) {
	case ImportancePersonal, ImportanceEveryone:
		return Importance(s), nil
	}
	return "", fmt.Errorf("unknown importance %q", s)
}

// Activity is a post as seen by one viewer.
type Activity struct {
	UUID    string   `json:"uuid"`
	Type    PostType `json:"type"`
	Content string   `json:"content,omitempty"`
	URL     string   `json:"url,omitempty"`
	Created int64    `json:"created"`
	MD5     string   `json:"md5,omitempty"`
	IsLiked bool     `json:"isLiked"`
	IsLoved bool     `json:"isLoved"`
	IsFaved bool     `json:"isFaved"`
}

// Actor is the author identity attached to a timeline entity.
type Actor struct {
	UUID     string `json:"uuid"`
	Username string `json:"username,omitempty"`
	Fullname string `json:"fullname,omitempty"`
}

// TimelineEntity pairs an activity with its author. Actor is nil when the
// author can no longer be resolved.
type TimelineEntity struct {
	Activity Activity `json:"activity"`
	Actor    *Actor   `json:"actor"`
}
