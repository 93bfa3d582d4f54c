package model

import "time"

// EventType names a domain event emitted after a successful write.
type EventType string

const (
	EventStatusCreated  EventType = "status.created"
	EventStatusReshared EventType = "status.reshared"
	EventFollowed       EventType = "user.followed"
	EventUnfollowed     EventType = "user.unfollowed"
)

// Event is published to the event log after the storage writes it describes
// have completed. Delivered counts the followers that received a fan-out.
type Event struct {
	Type      EventType `json:"type"`
	ActorUID  string    `json:"actor_uid"`
	TargetUID string    `json:"target_uid,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	Delivered int       `json:"delivered,omitempty"`
	At        time.Time `json:"at"`
}
