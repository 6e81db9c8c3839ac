// Package feed implements the paginated synchronization engine for
// feedrelay. It fetches post pages from the remote source, enriches each
// post with its resolved author, persists the result in the local cache, and
// serves a cache-first read path that degrades to cached content when the
// network is unreachable.
//
// The package contains two main components:
//
//   - [Loader] runs a single page-load pass: fetch → enrich → persist →
//     emit, with the offline cache fallback.
//   - [Repository] is the façade consumers talk to: the paged stream, point
//     reads, like toggling, comments, and cache invalidation.
package feed

import (
	"context"

	"github.com/njoerd114/feedrelay/internal/model"
)

// PostSource provides read access to the remote feed API.
// Implemented by [posts.Adapter].
type PostSource interface {
	FetchPage(ctx context.Context, offset, limit int) ([]model.RawPost, error)
	FetchByID(ctx context.Context, postID int) (model.RawPost, error)
	FetchComments(ctx context.Context, postID int) ([]model.Comment, error)
}

// UserResolver resolves a post's author, substituting a placeholder on
// not-found. Implemented by [users.Adapter].
type UserResolver interface {
	Resolve(ctx context.Context, userID int) (model.User, error)
}

// Store provides access to the durable local post cache.
// Implemented by [cache.Store].
type Store interface {
	UpsertBatch(ctx context.Context, batch []model.Post) error
	GetAll(ctx context.Context) ([]model.Post, error)
	GetByID(ctx context.Context, postID int) (*model.Post, error)
	UpdateLikes(ctx context.Context, postID int, likes []int) error
	Clear(ctx context.Context) error
	IsEmpty(ctx context.Context) (bool, error)
}
