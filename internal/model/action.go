package model

import (
	"fmt"
	"strings"
)

// Action is a social action a user can toggle on a post.
type Action uint8

const (
	ActionLike Action = iota + 1
	ActionLove
	ActionFav
	ActionShare
)

type actionAttrs struct {
	key       string // storage key suffix of the actor list
	noun      string
	plural    string
	pastTense string
}

var actionTable = map[Action]actionAttrs{
	ActionLike:  {key: ":likes", noun: "like", plural: "likes", pastTense: "liked"},
	ActionLove:  {key: ":loves", noun: "love", plural: "loves", pastTense: "loved"},
	ActionFav:   {key: ":favs", noun: "fav", plural: "faves", pastTense: "faved"},
	ActionShare: {key: ":shares", noun: "share", plural: "shares", pastTense: "shared"},
}

// Actions lists every action in declaration order.
var Actions = []Action{ActionLike, ActionLove, ActionFav, ActionShare}

func (a Action) Key() string       { return actionTable[a].key }
func (a Action) Noun() string      { return actionTable[a].noun }
func (a Action) Plural() string    { return actionTable[a].plural }
func (a Action) PastTense() string { return actionTable[a].pastTense }

func (a Action) String() string {
	if _, ok := actionTable[a]; !ok {
		return fmt.Sprintf("action(%d)", uint8(a))
	}
	return a.Noun()
}

// ParseAction accepts the noun, the plural or the upper-case name, case-insensitively.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		attrs := actionTable[a]
		if strings.EqualFold(s, attrs.noun) || strings.EqualFold(s, attrs.plural) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}
