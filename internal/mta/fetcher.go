package mta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jamespfennell/gtfs"

	"subwaydash.nyc/internal/cache"
	"subwaydash.nyc/internal/logging"
)

// DefaultFeedBaseURL is the NYCT realtime feed endpoint; a group's path
// segment is appended to it.
const DefaultFeedBaseURL = "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2F"

// FetcherConfig configures a FeedFetcher.
type FetcherConfig struct {
	// BaseURL defaults to DefaultFeedBaseURL.
	BaseURL string
	// Groups defaults to DefaultFeedGroups().
	Groups *FeedGroups
	// HTTPTimeout bounds each feed request. Defaults to 30s.
	HTTPTimeout time.Duration
	// SnapshotTTL enables reuse of a decoded snapshot per group for a short
	// window. Realtime data goes stale in seconds, so this should stay in
	// the single-digit-seconds range. Zero disables caching.
	SnapshotTTL time.Duration
	Logger      *slog.Logger
}

// FeedFetcher retrieves and decodes one realtime feed per group. Each fetch
// is a single attempt; retry policy belongs to the caller.
type FeedFetcher struct {
	baseURL   string
	groups    *FeedGroups
	client    *http.Client
	logger    *slog.Logger
	snapshots *cache.Cache[*gtfs.Realtime]
}

// NewFeedFetcher creates a fetcher.
func NewFeedFetcher(cfg FetcherConfig) *FeedFetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	groups := cfg.Groups
	if groups == nil {
		groups = DefaultFeedGroups()
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f := &FeedFetcher{
		baseURL: baseURL,
		groups:  groups,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "feed_fetcher")),
	}
	if cfg.SnapshotTTL > 0 {
		f.snapshots = cache.New[*gtfs.Realtime](cfg.SnapshotTTL)
	}
	return f
}

// GroupForLine resolves the feed group serving a line.
func (f *FeedFetcher) GroupForLine(line string) (FeedGroup, error) {
	return f.groups.GroupForLine(line)
}

// FetchGroup fetches and decodes the realtime feed for a group key. A non-200
// response or a timeout is a FeedFetchError; an undecodable payload is a
// FeedDecodeError.
func (f *FeedFetcher) FetchGroup(ctx context.Context, groupKey string) (*gtfs.Realtime, error) {
	group, ok := f.groups.GroupByKey(groupKey)
	if !ok {
		return nil, fmt.Errorf("unknown feed group %q", groupKey)
	}

	if f.snapshots != nil {
		if feed, hit := f.snapshots.Get(groupKey); hit {
			return feed, nil
		}
	}

	url := f.baseURL + group.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FeedFetchError{Group: groupKey, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FeedFetchError{Group: groupKey, Timeout: isTimeout(err), Err: err}
	}
	defer logging.SafeCloseWithLogging(resp.Body, f.logger, "feed_response_body")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FeedFetchError{Group: groupKey, Timeout: isTimeout(err), Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FeedFetchError{Group: groupKey, Status: resp.StatusCode, Body: string(body)}
	}

	feed, err := gtfs.ParseRealtime(body, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, &FeedDecodeError{Group: groupKey, Err: err}
	}

	logging.LogOperation(f.logger, "fetched_feed",
		slog.String("group", groupKey),
		slog.Int("trips", len(feed.Trips)))

	if f.snapshots != nil {
		f.snapshots.Set(groupKey, feed)
	}
	return feed, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
