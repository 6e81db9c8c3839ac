package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/njoerd114/feedrelay/internal/model"
)

// Repository is the façade over the synchronization engine: a paged stream
// of the merged feed, point reads, like toggling, best-effort comments, and
// cache invalidation. Create one with [NewRepository].
type Repository struct {
	loader        *Loader
	posts         PostSource
	store         Store
	pageSize      int
	initialOffset int
	log           *slog.Logger
}

// NewRepository creates a Repository wired to the given adapters and cache
// store, paging with the given fixed page size starting at initialOffset.
func NewRepository(posts PostSource, users UserResolver, store Store, pageSize, initialOffset int, logger *slog.Logger) *Repository {
	return &Repository{
		loader:        NewLoader(posts, users, store, initialOffset, logger),
		posts:         posts,
		store:         store,
		pageSize:      pageSize,
		initialOffset: initialOffset,
		log:           logger,
	}
}

// PagedStream returns a lazy, restartable stream over the feed. No
// placeholder rows are emitted for not-yet-loaded content: consumers only
// ever see fully enriched posts.
func (r *Repository) PagedStream() *Stream {
	return &Stream{
		loader:        r.loader,
		pageSize:      r.pageSize,
		initialOffset: r.initialOffset,
	}
}

// ToggleLike flips userID's membership in the stored liker set of postID:
// added if absent, removed if present. Returns false (and no error) when the
// post is not cached — there is nothing to toggle.
//
// A single call always flips state, so it is not idempotent; a retry flips
// it back. The session layer is responsible for not retrying blindly.
func (r *Repository) ToggleLike(ctx context.Context, postID, userID int) (bool, error) {
	p, err := r.store.GetByID(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("toggling like on post %d: %w", postID, err)
	}
	if p == nil {
		return false, nil
	}

	updated := model.ToggleLike(p.Likes, userID)
	if err := r.store.UpdateLikes(ctx, postID, updated); err != nil {
		return false, fmt.Errorf("toggling like on post %d: %w", postID, err)
	}
	return true, nil
}

// GetByID returns the post with the given id. A cache hit returns
// immediately; a miss triggers a single-item fetch-enrich-persist, returning
// (nil, nil) if that also fails.
func (r *Repository) GetByID(ctx context.Context, postID int) (*model.Post, error) {
	p, err := r.store.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("reading post %d from cache: %w", postID, err)
	}
	if p != nil {
		return p, nil
	}

	loaded, err := r.loader.LoadOne(ctx, postID)
	if err != nil {
		r.log.Warn("single-post load failed", "post_id", postID, "error", err)
		return nil, nil
	}
	return loaded, nil
}

// CommentsFor returns the server comments for a post. Comments are
// best-effort: any failure degrades to an empty result and is never fatal to
// the surrounding view.
func (r *Repository) CommentsFor(ctx context.Context, postID int) []model.Comment {
	comments, err := r.posts.FetchComments(ctx, postID)
	if err != nil {
		r.log.Debug("comment fetch failed", "post_id", postID, "error", err)
		return nil
	}
	return comments
}

// GetAllCached returns the cached feed. When the cache is empty it performs
// one fetch-enrich-persist cycle at the initial offset first; posts whose
// enrichment failed are silently excluded.
func (r *Repository) GetAllCached(ctx context.Context) ([]model.Post, error) {
	empty, err := r.store.IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking cached feed: %w", err)
	}
	if !empty {
		cached, err := r.store.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading cached feed: %w", err)
		}
		return cached, nil
	}

	page, err := r.loader.Load(ctx, r.initialOffset, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("warming empty cache: %w", err)
	}
	return page.Posts, nil
}

// Clear removes every cached post.
func (r *Repository) Clear(ctx context.Context) error {
	return r.store.Clear(ctx)
}

// --- Stream ------------------------------------------------------------------

// Stream is a lazy pull-based sequence of feed pages. Next loads and returns
// one page at a time; after end-of-data it returns (nil, nil). Restart
// rewinds to the initial offset for a fresh pass.
//
// A Stream is not safe for concurrent use. Cancellation is per call: cancel
// the context passed to Next and no partial page is emitted.
type Stream struct {
	loader        *Loader
	pageSize      int
	initialOffset int

	next    *int
	started bool
	done    bool
}

// Next loads the next page. A failed load does not advance the stream, so
// the same page can be retried. Returns (nil, nil) once the stream is
// exhausted.
func (s *Stream) Next(ctx context.Context) (*Page, error) {
	if s.done {
		return nil, nil
	}

	offset := s.initialOffset
	if s.started {
		offset = *s.next
	}

	page, err := s.loader.Load(ctx, offset, s.pageSize)
	if err != nil {
		return nil, err
	}

	s.started = true
	s.next = page.NextKey
	if page.NextKey == nil {
		s.done = true
	}
	return page, nil
}

// Restart rewinds the stream to the initial offset. The next call to Next
// reloads from the start.
func (s *Stream) Restart() {
	s.next = nil
	s.started = false
	s.done = false
}

// RefreshKey returns the offset to reload anchored at the most recently
// emitted page, per the refresh policy: prevKey + pageSize when available,
// else nextKey - pageSize, else nil (reload from the start).
func (s *Stream) RefreshKey(lastPage *Page) *int {
	if lastPage == nil {
		return nil
	}
	return RefreshKey(lastPage.PrevKey, lastPage.NextKey, s.pageSize)
}
