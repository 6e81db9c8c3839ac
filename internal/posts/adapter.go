// Package posts wraps the remote feed API: paginated post batches, single
// posts, and per-post comments. It provides an [Adapter] with methods aligned
// to the feed engine's needs and conversion between the API's JSON
// representation and the shared model types.
package posts

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/njoerd114/feedrelay/internal/httpx"
	"github.com/njoerd114/feedrelay/internal/model"
)

// JSONClient is the subset of [httpx.Client] used by the adapter. Defining it
// as an interface allows mock injection in tests.
type JSONClient interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Adapter fetches posts and comments from the remote feed API.
// Create one with [NewAdapter] or [NewAdapterWithClient].
type Adapter struct {
	client JSONClient
	log    *slog.Logger
}

// NewAdapter creates an Adapter backed by a real HTTP client for baseURL.
func NewAdapter(baseURL string, logger *slog.Logger) *Adapter {
	return &Adapter{client: httpx.NewClient(baseURL, logger), log: logger}
}

// NewAdapterWithClient creates an Adapter with a caller-supplied client.
// Intended for testing with a mock [JSONClient].
func NewAdapterWithClient(client JSONClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, log: logger}
}

// FetchPage returns one batch of raw posts starting at offset, at most limit
// long. An empty batch signals end-of-data.
func (a *Adapter) FetchPage(ctx context.Context, offset, limit int) ([]model.RawPost, error) {
	query := url.Values{
		"offset": []string{strconv.Itoa(offset)},
		"limit":  []string{strconv.Itoa(limit)},
	}

	var resp postsResponse
	err := httpx.Retry(ctx, httpx.DefaultMaxAttempts, func() error {
		return a.client.GetJSON(ctx, pathPosts, query, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch posts page offset=%d limit=%d: %w", offset, limit, err)
	}

	a.log.Debug("fetched posts page", "offset", offset, "count", len(resp.Photos))
	return toRawPosts(resp.Photos), nil
}

// FetchByID returns a single raw post by its server id.
func (a *Adapter) FetchByID(ctx context.Context, postID int) (model.RawPost, error) {
	var dto postDTO
	err := httpx.Retry(ctx, httpx.DefaultMaxAttempts, func() error {
		return a.client.GetJSON(ctx, fmt.Sprintf("%s/%d", pathPostByID, postID), nil, &dto)
	})
	if err != nil {
		return model.RawPost{}, fmt.Errorf("fetch post %d: %w", postID, err)
	}
	return toRawPost(dto), nil
}

// FetchComments returns the server comments for a post. Failures propagate;
// the repository layer decides that comments are best-effort, not this one.
func (a *Adapter) FetchComments(ctx context.Context, postID int) ([]model.Comment, error) {
	var dtos []commentDTO
	err := httpx.Retry(ctx, httpx.DefaultMaxAttempts, func() error {
		return a.client.GetJSON(ctx, fmt.Sprintf("%s/%d/comments", pathPostByID, postID), nil, &dtos)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch comments for post %d: %w", postID, err)
	}
	return toComments(dtos), nil
}
