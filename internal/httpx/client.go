// Package httpx provides the plain JSON HTTP client shared by the remote
// adapters, together with the error taxonomy the feed engine keys its
// failure handling on and a small exponential-backoff [Retry] helper.
//
// Classification matters more than transport detail here: a connectivity
// failure (DNS, refused connection, timeout) surfaces as [ErrUnreachable] and
// triggers the cache fallback one layer up, while a non-2xx response surfaces
// as a [*StatusError] and is propagated without fallback.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnreachable marks transient connectivity-class failures: the request
// never produced an HTTP response. Test with [IsTransient].
var ErrUnreachable = errors.New("remote unreachable")

// StatusError is returned when the remote answered with a non-2xx status.
// The protocol worked, the server rejected — no fallback applies.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned status %d for %s", e.Code, e.URL)
}

// IsTransient reports whether err is a connectivity-class failure that
// warrants the cache fallback.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client issues JSON GET requests against a single base URL.
type Client struct {
	baseURL string
	hc      *http.Client
	log     *slog.Logger
}

// NewClient creates a Client for the given base URL. The trailing slash is
// normalised away so paths can be joined predictably.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 15 * time.Second},
		log:     logger,
	}
}

// GetJSON requests path (plus optional query values) and decodes the 2xx
// response body into out.
//
// Failure mapping: transport errors wrap [ErrUnreachable]; non-2xx statuses
// become a [*StatusError]; a body that fails to decode is returned as a plain
// error and treated by callers as an unclassified remote failure.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		// Honour cancellation over classification: a cancelled context is a
		// caller decision, not a network condition.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("get %s: %w", endpoint, ctxErr)
		}
		c.log.Debug("request failed", "url", endpoint, "error", err)
		return fmt.Errorf("get %s: %w: %v", endpoint, ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return nil
}
