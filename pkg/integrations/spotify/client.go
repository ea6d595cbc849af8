package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/setlistgen/pkg/cache"
	cerrors "github.com/matzehuels/setlistgen/pkg/errors"
	"github.com/matzehuels/setlistgen/pkg/integrations"
)

// DefaultAPIURL is the Spotify Web API base URL.
const DefaultAPIURL = "https://api.spotify.com/v1"

// Batch limits of the multi-get endpoints.
const (
	MaxAudioFeaturesBatch = 100
	MaxArtistsBatch       = 50
)

// DefaultTTL is how long per-id responses stay cached.
const DefaultTTL = cache.TTLHTTP

// Client provides access to the Spotify Web API.
// It handles HTTP requests with caching, automatic retries, rate
// limiting and a circuit breaker.
type Client struct {
	*integrations.Client
	baseURL string
}

type options struct {
	baseURL   string
	ttl       time.Duration
	userAgent string
	rps       float64
	burst     int
	extra     []integrations.Option
}

// Option configures a [Client].
type Option func(*options)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimSuffix(u, "/") }
}

// WithTTL sets how long audio features and artists are cached.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRateLimit limits requests per second. Zero disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) { o.rps, o.burst = rps, burst }
}

// WithClientOptions passes options through to the underlying HTTP client.
func WithClientOptions(opts ...integrations.Option) Option {
	return func(o *options) { o.extra = append(o.extra, opts...) }
}

// NewClient creates a Spotify API client. backend may be nil to disable
// caching.
func NewClient(backend cache.Cache, tokens TokenSource, opts ...Option) *Client {
	o := options{
		baseURL:   DefaultAPIURL,
		ttl:       DefaultTTL,
		userAgent: "setlistgen",
		rps:       10,
		burst:     5,
	}
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []integrations.Option{
		integrations.WithAuth(tokens.AccessToken),
		integrations.WithRateLimit(o.rps, o.burst),
		integrations.WithCircuitBreaker(integrations.BreakerConfig{Name: "spotify"}),
	}
	clientOpts = append(clientOpts, o.extra...)

	headers := map[string]string{"User-Agent": o.userAgent}
	return &Client{
		Client:  integrations.NewClient(backend, "spotify", o.ttl, headers, clientOpts...),
		baseURL: o.baseURL,
	}
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.Get(ctx, c.baseURL+"/me", &u); err != nil {
		return nil, classify(err, "fetch current user")
	}
	return &u, nil
}

// Playlist returns playlist metadata.
func (c *Client) Playlist(ctx context.Context, id string) (*Playlist, error) {
	q := url.Values{"fields": {"id,name,snapshot_id,owner(id,display_name),tracks(total)"}}
	var p Playlist
	if err := c.Get(ctx, c.baseURL+"/playlists/"+url.PathEscape(id)+"?"+q.Encode(), &p); err != nil {
		return nil, classifyPlaylist(err, id)
	}
	return &p, nil
}

// PlaylistTracks returns every track of a playlist, following "next"
// links. Local files, removed tracks and episodes without an id are
// skipped.
func (c *Client) PlaylistTracks(ctx context.Context, id string) ([]Track, error) {
	q := url.Values{
		"limit":  {"100"},
		"fields": {"items(track(id,name,uri,is_local,duration_ms,artists(id,name))),next,total"},
	}
	next := c.baseURL + "/playlists/" + url.PathEscape(id) + "/tracks?" + q.Encode()

	var tracks []Track
	for next != "" {
		var page playlistTracksPage
		if err := c.Get(ctx, next, &page); err != nil {
			return nil, classifyPlaylist(err, id)
		}
		for _, item := range page.Items {
			if t := item.Track; t != nil && t.ID != "" && !t.IsLocal {
				tracks = append(tracks, *t)
			}
		}
		next = page.Next
	}
	return tracks, nil
}

// AudioFeatures returns features keyed by track id. Tracks Spotify has no
// analysis for are absent from the map.
func (c *Client) AudioFeatures(ctx context.Context, ids []string, refresh bool) (map[string]*AudioFeatures, error) {
	return fetchBatched(ctx, c, ids, refresh, MaxAudioFeaturesBatch, "audio-features:",
		func(batch []string) ([]*AudioFeatures, error) {
			var resp audioFeaturesResponse
			err := c.Get(ctx, c.baseURL+"/audio-features?ids="+strings.Join(batch, ","), &resp)
			return resp.AudioFeatures, err
		},
		func(f *AudioFeatures) string { return f.ID },
	)
}

// Artists returns artists keyed by id.
func (c *Client) Artists(ctx context.Context, ids []string, refresh bool) (map[string]*Artist, error) {
	return fetchBatched(ctx, c, ids, refresh, MaxArtistsBatch, "artist:",
		func(batch []string) ([]*Artist, error) {
			var resp artistsResponse
			err := c.Get(ctx, c.baseURL+"/artists?ids="+strings.Join(batch, ","), &resp)
			return resp.Artists, err
		},
		func(a *Artist) string { return a.ID },
	)
}

// fetchBatched serves ids from the cache and fetches the misses in batches
// of size, caching each result under prefix+id. Null entries in a
// response are skipped.
func fetchBatched[T any](
	ctx context.Context,
	c *Client,
	ids []string,
	refresh bool,
	size int,
	prefix string,
	fetch func(batch []string) ([]*T, error),
	idOf func(*T) string,
) (map[string]*T, error) {
	out := make(map[string]*T, len(ids))
	seen := make(map[string]bool, len(ids))

	var missing []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if !refresh {
			var v T
			if ok, _ := c.Lookup(ctx, prefix+id, &v); ok {
				out[id] = &v
				continue
			}
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += size {
		batch := missing[start:min(start+size, len(missing))]
		items, err := fetch(batch)
		if err != nil {
			return nil, classify(err, "fetch %s", strings.TrimSuffix(prefix, ":"))
		}
		for _, item := range items {
			if item == nil {
				continue
			}
			id := idOf(item)
			out[id] = item
			_ = c.Store(ctx, prefix+id, item)
		}
	}
	return out, nil
}

// classify converts integration errors to coded errors.
func classify(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return cerrors.Wrap(cerrors.ErrCodeTimeout, err, "%s", msg)
	case errors.Is(err, integrations.ErrUnauthorized):
		return cerrors.Wrap(cerrors.ErrCodeUnauthorized, err, "%s", msg)
	case errors.Is(err, integrations.ErrForbidden):
		return cerrors.Wrap(cerrors.ErrCodeForbidden, err, "%s", msg)
	case errors.Is(err, integrations.ErrNotFound):
		return cerrors.Wrap(cerrors.ErrCodeNotFound, err, "%s", msg)
	case errors.Is(err, integrations.ErrRateLimited):
		return cerrors.Wrap(cerrors.ErrCodeRateLimited, err, "%s", msg)
	case errors.Is(err, integrations.ErrBadRequest):
		return cerrors.Wrap(cerrors.ErrCodeInvalidInput, err, "%s", msg)
	case errors.Is(err, integrations.ErrNetwork), errors.Is(err, integrations.ErrUnavailable):
		return cerrors.Wrap(cerrors.ErrCodeNetwork, err, "%s", msg)
	default:
		var coded *cerrors.Error
		if errors.As(err, &coded) {
			return err
		}
		return cerrors.Wrap(cerrors.ErrCodeInternal, err, "%s", msg)
	}
}

func classifyPlaylist(err error, id string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return cerrors.Wrap(cerrors.ErrCodePlaylistNotFound, err, "playlist %s not found", id)
	}
	return classify(err, "fetch playlist %s", id)
}
