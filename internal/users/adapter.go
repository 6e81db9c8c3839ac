// Package users wraps the remote user-lookup API and implements the owner
// resolution policy: a not-found author becomes a recognisable placeholder,
// any other failure is a resolution error the caller must handle.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/njoerd114/feedrelay/internal/httpx"
	"github.com/njoerd114/feedrelay/internal/model"
)

// ErrResolutionFailed marks a non-not-found lookup failure (network,
// malformed response, unexpected status). Callers drop the affected post
// rather than substituting a placeholder.
var ErrResolutionFailed = errors.New("owner resolution failed")

// JSONClient is the subset of [httpx.Client] used by the adapter. Defining it
// as an interface allows mock injection in tests.
type JSONClient interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Adapter fetches user details from the remote lookup API.
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

// Resolve returns the user for userID, applying the enrichment policy:
//
//   - lookup succeeds → the mapped user;
//   - lookup reports not-found → [model.PlaceholderUser] for userID, no
//     error (a policy decision, not a failure);
//   - anything else → [ErrResolutionFailed].
func (a *Adapter) Resolve(ctx context.Context, userID int) (model.User, error) {
	resp, err := a.fetch(ctx, userID)
	if err != nil {
		if httpx.IsNotFound(err) {
			a.log.Debug("user not found, substituting placeholder", "user_id", userID)
			return model.PlaceholderUser(userID), nil
		}
		return model.User{}, fmt.Errorf("resolving user %d: %w: %v", userID, ErrResolutionFailed, err)
	}
	return toUser(resp), nil
}

// Lookup returns the user for userID, or (nil, nil) when the remote reports
// not-found. Unlike [Adapter.Resolve] it never substitutes a placeholder —
// profile views want the distinction.
func (a *Adapter) Lookup(ctx context.Context, userID int) (*model.User, error) {
	resp, err := a.fetch(ctx, userID)
	if err != nil {
		if httpx.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up user %d: %w", userID, err)
	}
	u := toUser(resp)
	return &u, nil
}

func (a *Adapter) fetch(ctx context.Context, userID int) (userResponse, error) {
	var resp userResponse
	err := httpx.Retry(ctx, httpx.DefaultMaxAttempts, func() error {
		return a.client.GetJSON(ctx, fmt.Sprintf("%s/%d", pathUsers, userID), nil, &resp)
	})
	return resp, err
}
