// Package session tracks transient, user-driven feed state — intended like
// toggles, expanded detail views, and locally-authored comments — and
// overlays it on persisted truth at read time. Nothing here is durable: the
// state lives for one session and is lost on restart.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/njoerd114/feedrelay/internal/model"
)

// likeFailedMessage is the user-visible message surfaced when a like toggle
// cannot be confirmed.
const likeFailedMessage = "Failed to update like state."

// Repository is the subset of [feed.Repository] the session depends on.
type Repository interface {
	ToggleLike(ctx context.Context, postID, userID int) (bool, error)
	CommentsFor(ctx context.Context, postID int) []model.Comment
}

// Counter hands out monotonically increasing ids for locally-authored
// comments. Safe for concurrent use. Ids are unique only among comments
// created through this counter in one session — there is no namespacing
// against server-assigned ids.
type Counter struct {
	n atomic.Int64
}

// NewCounter creates a Counter starting at zero; the first id is 1.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next id.
func (c *Counter) Next() int {
	return int(c.n.Add(1))
}

// Session is the optimistic state reconciler. It owns three independently
// mutable pieces of session state — the expanded-detail set, the intended
// liked-ids set, and the local comments map — and merges them with server
// truth on every [Session.Display] call.
type Session struct {
	repo   Repository
	userID int
	ids    *Counter
	log    *slog.Logger

	mu             sync.Mutex
	expanded       map[int]struct{}
	liked          map[int]struct{}
	serverComments map[int][]model.Comment
	localComments  map[int][]model.Comment
	errMsg         string

	// gates serialises toggles of the same post so in-flight confirmations
	// cannot race each other. Toggles of different posts stay concurrent.
	gates map[int]*sync.Mutex

	wg sync.WaitGroup
}

// New creates a Session acting as userID, drawing local comment ids from the
// given counter.
func New(repo Repository, userID int, ids *Counter, logger *slog.Logger) *Session {
	return &Session{
		repo:   repo,
		userID: userID,
		ids:    ids,
		log:    logger,

		expanded:       make(map[int]struct{}),
		liked:          make(map[int]struct{}),
		serverComments: make(map[int][]model.Comment),
		localComments:  make(map[int][]model.Comment),
		gates:          make(map[int]*sync.Mutex),
	}
}

// ToggleLike flips the intended like state of postID immediately — before
// any network traffic, so callers see the change at once — then confirms the
// toggle against the repository in the background.
//
// If the repository reports false or fails, the membership captured before
// the flip is restored and a user-visible error message is set.
func (s *Session) ToggleLike(ctx context.Context, postID int) {
	s.mu.Lock()
	_, wasLiked := s.liked[postID]
	if wasLiked {
		delete(s.liked, postID)
	} else {
		s.liked[postID] = struct{}{}
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		gate := s.gate(postID)
		gate.Lock()
		defer gate.Unlock()

		ok, err := s.repo.ToggleLike(ctx, postID, s.userID)
		if err != nil || !ok {
			if err != nil {
				s.log.Warn("like toggle failed", "post_id", postID, "error", err)
			}
			s.restoreLike(postID, wasLiked)
		}
	}()
}

// restoreLike puts the intended membership of postID back to the captured
// pre-toggle value and surfaces the failure message.
func (s *Session) restoreLike(postID int, wasLiked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wasLiked {
		s.liked[postID] = struct{}{}
	} else {
		delete(s.liked, postID)
	}
	s.errMsg = likeFailedMessage
}

// gate returns the per-post toggle mutex, creating it on first use.
func (s *Session) gate(postID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gates[postID]
	if !ok {
		g = &sync.Mutex{}
		s.gates[postID] = g
	}
	return g
}

// Wait blocks until every in-flight toggle confirmation has finished. Call
// before shutdown, or in tests that need a settled state.
func (s *Session) Wait() {
	s.wg.Wait()
}

// ExpandDetails toggles the expanded detail view of postID and, when the
// post's server comments have not been fetched yet, fetches them once. The
// fetched result — even an empty one — is cached so repeated toggles never
// re-fetch.
func (s *Session) ExpandDetails(ctx context.Context, postID int) {
	s.mu.Lock()
	if _, open := s.expanded[postID]; open {
		delete(s.expanded, postID)
	} else {
		s.expanded[postID] = struct{}{}
	}
	_, fetched := s.serverComments[postID]
	s.mu.Unlock()

	if fetched {
		return
	}

	comments := s.repo.CommentsFor(ctx, postID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.serverComments[postID]; !dup {
		s.serverComments[postID] = comments
	}
}

// IsExpanded reports whether postID's detail view is open.
func (s *Session) IsExpanded(postID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, open := s.expanded[postID]
	return open
}

// AddLocalComment records a comment authored by the session user on postID.
// The comment is visible in the merged view immediately and is never
// submitted to the server.
func (s *Session) AddLocalComment(postID int, text string) model.Comment {
	c := model.Comment{
		ID:     s.ids.Next(),
		PostID: postID,
		UserID: s.userID,
		Text:   text,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.localComments[postID] = append(s.localComments[postID], c)
	return c
}

// Display overlays the session state on a persisted post: intended like
// state, adjusted like count, and server comments followed by local ones.
func (s *Session) Display(p model.Post) model.DisplayPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, isLiked := s.liked[p.ID]
	adjustment := 0
	if isLiked {
		adjustment = 1
	}

	server := s.serverComments[p.ID]
	local := s.localComments[p.ID]
	merged := make([]model.Comment, 0, len(server)+len(local))
	merged = append(merged, server...)
	merged = append(merged, local...)

	return model.DisplayPost{
		Post:      p,
		IsLiked:   isLiked,
		LikeCount: len(p.Likes) + adjustment,
		Comments:  merged,
	}
}

// DisplayAll overlays the session state on every post in order.
func (s *Session) DisplayAll(batch []model.Post) []model.DisplayPost {
	out := make([]model.DisplayPost, 0, len(batch))
	for _, p := range batch {
		out = append(out, s.Display(p))
	}
	return out
}

// ErrorMessage returns the pending user-visible error message, or "".
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError clears the pending error message.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}
