package model

import (
	"strconv"
	"time"
)

// User is an account. UID is the stable identity; Username is unique and
// immutable once set. Followers/Following are advisory counters maintained by
// the relationship service.
type User struct {
	UID            string    `json:"uid"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Fullname       string    `json:"fullname,omitempty"`
	PasswordHash   string    `json:"-"`
	Salt           string    `json:"-"`
	Poly           string    `json:"-"`
	Followers      int64     `json:"followers"`
	Following      int64     `json:"following"`
	PolyCount      int64     `json:"-"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Activated      bool      `json:"activated"`
	Disabled       bool      `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Hash field names of user:<username>.
const (
	UserFieldUID       = "uuid"
	UserFieldFullname  = "fullname"
	UserFieldFollowers = "followers"
	UserFieldFollowing = "following"
	UserFieldPolyCount = "polyCount"
	UserFieldActivated = "activated"
	UserFieldDisabled  = "disabled"
)

// Identity is the public projection used in member lists, actor lists and
// timeline actors.
type Identity struct {
	UID      string `json:"uuid"`
	Username string `json:"username"`
	Fullname string `json:"fullname,omitempty"`
}

func (u *User) ToMap() map[string]string {
	m := map[string]string{
		UserFieldUID:       u.UID,
		"username":         u.Username,
		"email":            u.Email,
		"passwordHash":     u.PasswordHash,
		"salt":             u.Salt,
		"poly":             u.Poly,
		UserFieldFollowers: strconv.FormatInt(u.Followers, 10),
		UserFieldFollowing: strconv.FormatInt(u.Following, 10),
		UserFieldPolyCount: strconv.FormatInt(u.PolyCount, 10),
		UserFieldActivated: strconv.FormatBool(u.Activated),
		UserFieldDisabled:  strconv.FormatBool(u.Disabled),
	}
	if u.Fullname != "" {
		m[UserFieldFullname] = u.Fullname
	}
	if u.ProfilePicture != "" {
		m["profilePicture"] = u.ProfilePicture
	}
	if !u.CreatedAt.IsZero() {
		m["createdAt"] = strconv.FormatInt(u.CreatedAt.Unix(), 10)
	}
	return m
}

func UserFromMap(m map[string]string) *User {
	u := &User{
		UID:            m[UserFieldUID],
		Username:       m["username"],
		Email:          m["email"],
		Fullname:       m[UserFieldFullname],
		PasswordHash:   m["passwordHash"],
		Salt:           m["salt"],
		Poly:           m["poly"],
		Followers:      parseInt(m[UserFieldFollowers]),
		Following:      parseInt(m[UserFieldFollowing]),
		PolyCount:      parseInt(m[UserFieldPolyCount]),
		ProfilePicture: m["profilePicture"],
		Activated:      m[UserFieldActivated] == "true",
		Disabled:       m[UserFieldDisabled] == "true",
	}
	if ts := parseInt(m["createdAt"]); ts > 0 {
		u.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return u
}

func (u *User) Identity() Identity {
	return Identity{UID: u.UID, Username: u.Username, Fullname: u.Fullname}
}
