package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/njoerd114/feedrelay/internal/httpx"
	"github.com/njoerd114/feedrelay/internal/model"
)

const (
	otelScope       = "feedrelay/feed"
	spanLoad        = "feed.load_page"
	metricPages     = "feedrelay.feed.pages.loaded"
	metricEnriched  = "feedrelay.feed.posts.enriched"
	metricDropped   = "feedrelay.feed.posts.dropped"
	metricFallbacks = "feedrelay.feed.cache.fallbacks"
)

// Page is one batch of enriched posts plus the derived pagination keys. A
// nil NextKey means end-of-data; a page served from the cache fallback has
// both keys nil — no further pagination is possible from cache alone.
type Page struct {
	Posts   []model.Post
	PrevKey *int
	NextKey *int
}

// Loader performs a single page load: fetch the raw batch, resolve each
// author, persist the enriched posts, and emit the page. On a transient
// connectivity failure it falls back to the whole cache. It is stateless
// between calls.
type Loader struct {
	posts         PostSource
	users         UserResolver
	store         Store
	initialOffset int
	log           *slog.Logger

	// OTel instruments — always non-nil (no-op when telemetry is disabled).
	tracer       trace.Tracer
	cntPages     metric.Int64Counter
	cntEnriched  metric.Int64Counter
	cntDropped   metric.Int64Counter
	cntFallbacks metric.Int64Counter
}

// NewLoader creates a Loader wired to the given sources and cache store.
func NewLoader(posts PostSource, users UserResolver, store Store, initialOffset int, logger *slog.Logger) *Loader {
	tracer := otel.Tracer(otelScope)
	meter := otel.Meter(otelScope)

	mustCounter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("creating OTel counter", "name", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &Loader{
		posts:         posts,
		users:         users,
		store:         store,
		initialOffset: initialOffset,
		log:           logger,

		tracer:       tracer,
		cntPages:     mustCounter(metricPages, "Number of feed pages loaded from the remote source"),
		cntEnriched:  mustCounter(metricEnriched, "Number of posts enriched with a resolved author"),
		cntDropped:   mustCounter(metricDropped, "Number of posts dropped because author resolution failed"),
		cntFallbacks: mustCounter(metricFallbacks, "Number of page loads served from the cache fallback"),
	}
}

// Load runs the page-load pass for (offset, pageSize).
//
// Failure handling: a transient connectivity failure degrades to the whole
// cache as a single terminal page when the cache is non-empty, and
// propagates otherwise; a remote rejection or unclassified failure always
// propagates — serving stale data would mask a real protocol problem.
func (l *Loader) Load(ctx context.Context, offset, pageSize int) (*Page, error) {
	ctx, span := l.tracer.Start(ctx, spanLoad)
	defer span.End()
	span.SetAttributes(
		attribute.Int("feed.offset", offset),
		attribute.Int("feed.page_size", pageSize),
	)

	raw, err := l.posts.FetchPage(ctx, offset, pageSize)
	if err != nil {
		if httpx.IsTransient(err) {
			return l.fallback(ctx, err)
		}
		span.RecordError(err)
		return nil, err
	}

	enriched, err := l.enrich(ctx, raw)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Persist before emitting so the cache always reflects the most recently
	// fetched state for each id.
	if err := l.store.UpsertBatch(ctx, enriched); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("persisting page offset=%d: %w", offset, err)
	}

	l.cntPages.Add(ctx, 1)
	l.log.Debug("page loaded",
		"offset", offset,
		"fetched", len(raw),
		"enriched", len(enriched),
	)

	return &Page{
		Posts:   enriched,
		PrevKey: PrevKey(offset, pageSize, l.initialOffset),
		NextKey: NextKey(len(raw), offset, pageSize),
	}, nil
}

// LoadOne fetches, enriches, and persists a single post by id.
func (l *Loader) LoadOne(ctx context.Context, postID int) (*model.Post, error) {
	raw, err := l.posts.FetchByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	owner, err := l.users.Resolve(ctx, raw.UserID)
	if err != nil {
		return nil, err
	}
	p := model.JoinPostUser(raw, owner)
	if err := l.store.UpsertBatch(ctx, []model.Post{p}); err != nil {
		return nil, fmt.Errorf("persisting post %d: %w", postID, err)
	}
	return &p, nil
}

// enrich resolves the author of every raw post, preserving source order.
// Posts whose resolution fails are dropped from the page without surfacing a
// partial-page error; the drop is logged and counted.
func (l *Loader) enrich(ctx context.Context, raw []model.RawPost) ([]model.Post, error) {
	enriched := make([]model.Post, 0, len(raw))
	for _, rp := range raw {
		if err := ctx.Err(); err != nil {
			// Never emit a partial page after cancellation.
			return nil, err
		}

		owner, err := l.users.Resolve(ctx, rp.UserID)
		if err != nil {
			l.cntDropped.Add(ctx, 1)
			l.log.Warn("dropping post, author resolution failed",
				"post_id", rp.ID,
				"user_id", rp.UserID,
				"error", err,
			)
			continue
		}
		enriched = append(enriched, model.JoinPostUser(rp, owner))
	}
	l.cntEnriched.Add(ctx, int64(len(enriched)))
	return enriched, nil
}

// fallback serves the entire cache as a single terminal page. Both keys are
// nil — paginating further is impossible without the network. An empty
// cache propagates the original failure.
func (l *Loader) fallback(ctx context.Context, cause error) (*Page, error) {
	cached, err := l.store.GetAll(ctx)
	if err != nil {
		return nil, errors.Join(cause, fmt.Errorf("reading cache fallback: %w", err))
	}
	if len(cached) == 0 {
		return nil, cause
	}

	l.cntFallbacks.Add(ctx, 1)
	l.log.Warn("remote unreachable, serving cached feed", "cached", len(cached), "error", cause)
	return &Page{Posts: cached}, nil
}
