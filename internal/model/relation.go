package model

import "fmt"

// Relation names one of a user's membership sets. Followers/following and
// blocked/blockers and muted/muters are mirrored pairs; friends is the
// separately maintained mutual-follow set.
type Relation uint8

const (
	RelationFollowers Relation = iota + 1
	RelationFollowing
	RelationFriends
	RelationBlocked
	RelationBlockers
	RelationMuted
	RelationMuters
)

var relationNames = map[Relation]string{
	RelationFollowers: "followers",
	RelationFollowing: "following",
	RelationFriends:   "friends",
	RelationBlocked:   "blocked",
	RelationBlockers:  "blockers",
	RelationMuted:     "muted",
	RelationMuters:    "muters",
}

// Relations lists every relation in declaration order.
var Relations = []Relation{
	RelationFollowers, RelationFollowing, RelationFriends,
	RelationBlocked, RelationBlockers, RelationMuted, RelationMuters,
}

func (r Relation) String() string {
	if s, ok := relationNames[r]; ok {
		return s
	}
	return fmt.Sprintf("relation(%d)", uint8(r))
}

// Mirror returns the relation that holds the reverse edge, if any.
func (r Relation) Mirror() (Relation, bool) {
	switch r {
	case RelationFollowers:
		return RelationFollowing, true
	case RelationFollowing:
		return RelationFollowers, true
	case RelationBlocked:
		return RelationBlockers, true
	case RelationBlockers:
		return RelationBlocked, true
	case RelationMuted:
		return RelationMuters, true
	case RelationMuters:
		return RelationMuted, true
	}
	return 0, false
}

// ParseRelation resolves a relation by its set name.
func ParseRelation(s string) (Relation, error) {
	for r, name := range relationNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown relation %q", s)
}
