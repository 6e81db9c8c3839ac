// Package model defines shared types used across the feed engine and adapters.
package model

import (
	"slices"
	"strings"
)

// RawPost is a feed entry exactly as the remote post source transmits it,
// before the author has been resolved. Raw posts never carry likes — like
// state is entirely client-local and layered on at read time.
type RawPost struct {
	// ID is the server-assigned post identifier. Stable and unique.
	ID int

	// Title is the post's display title.
	Title string

	// Description is the post's body text.
	Description string

	// ImageURL references the post's media.
	ImageURL string

	// UserID identifies the post's author, resolved separately through the
	// user-lookup source.
	UserID int
}

// Post is the enriched, storable representation of a feed entry: a raw post
// joined with its resolved author. This is the shape persisted in the cache.
type Post struct {
	ID          int
	Title       string
	Description string
	ImageURL    string

	// Likes is the server-authoritative set of liker ids. Initialised empty
	// on enrichment and only mutated through confirmed toggle results or a
	// full re-fetch.
	Likes []int

	UserID    int
	UserName  string
	UserImage string
}

// User is the author associated with a post. Username, Email, and Address are
// optional and empty when the lookup source omits them.
type User struct {
	ID        int
	FirstName string
	LastName  string
	ImageURL  string
	Username  string
	Email     string

	// Address is a "City, State" summary joined from the lookup response.
	Address string
}

// Comment is a single comment on a post. Server comments are immutable from
// the client's perspective; local comments carry session-assigned ids.
type Comment struct {
	ID     int
	PostID int
	UserID int
	Text   string
}

// DisplayPost is a Post with the per-read derived fields overlaid: intended
// like state, adjusted like count, and the merged comment list. Never
// persisted.
type DisplayPost struct {
	Post

	// IsLiked reflects the user's intended state, which may run ahead of the
	// persisted liker set while a toggle is in flight.
	IsLiked bool

	// LikeCount is the persisted liker count plus the intended-state
	// adjustment.
	LikeCount int

	// Comments is the server comments followed by locally-authored ones.
	Comments []Comment
}

const (
	placeholderFirstName = "Unknown"
	placeholderLastName  = "User"
)

// PlaceholderUser synthesises the fallback author substituted when the
// lookup source reports not-found. It is a valid user — callers proceed as if
// resolution succeeded — but recognisable via [User.IsPlaceholder].
func PlaceholderUser(id int) User {
	return User{
		ID:        id,
		FirstName: placeholderFirstName,
		LastName:  placeholderLastName,
	}
}

// IsPlaceholder reports whether u is the synthesised not-found fallback.
func (u User) IsPlaceholder() bool {
	return u.FirstName == placeholderFirstName &&
		u.LastName == placeholderLastName &&
		u.ImageURL == ""
}

// DisplayName concatenates the user's name parts for display.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// JoinPostUser joins a raw post with its resolved author into a storable
// Post. The mapping is one-directional: raw fields are never reconstructed
// from the result. Likes start empty — the post source does not transmit
// them.
func JoinPostUser(raw RawPost, owner User) Post {
	return Post{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		ImageURL:    raw.ImageURL,
		Likes:       []int{},
		UserID:      owner.ID,
		UserName:    owner.DisplayName(),
		UserImage:   owner.ImageURL,
	}
}

// ToggleLike returns the liker set with userID added if absent or removed if
// present. The input slice is not modified.
func ToggleLike(likes []int, userID int) []int {
	if i := slices.Index(likes, userID); i >= 0 {
		return slices.Delete(slices.Clone(likes), i, i+1)
	}
	out := make([]int, 0, len(likes)+1)
	out = append(out, likes...)
	return append(out, userID)
}

// JoinAddress builds the "City, State" address summary, skipping empty parts.
func JoinAddress(city, state string) string {
	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		parts = append(parts, state)
	}
	return strings.Join(parts, ", ")
}
