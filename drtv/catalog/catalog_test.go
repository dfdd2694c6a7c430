package catalog_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/drtvd/cache"
	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/drtv/catalog"
)

const showURL = "https://service.example/drtv/serie/show_123/season_1/episode_45_999"

type listing struct {
	calls    atomic.Int32
	statuses []int
	body     string
	lastPath atomic.Value
}

func (l *listing) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(l.calls.Add(1))
	if r.URL.Path != "/api/page" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	l.lastPath.Store(r.URL.Query().Get("path"))
	if n <= len(l.statuses) {
		w.WriteHeader(l.statuses[n-1])
		return
	}
	_, _ = io.WriteString(w, l.body)
}

func newClient(t *testing.T, l *listing, ttl time.Duration) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(l)
	t.Cleanup(srv.Close)

	site, err := drtv.NewSite("https://service.example/drtv")
	require.NoError(t, err)
	shows := cache.NewShows(ttl)
	t.Cleanup(shows.Stop)

	endpoints := drtv.Endpoints{API: srv.URL + "/api", Site: site.Root()}
	return catalog.New(http.DefaultClient, endpoints, site, shows, zerolog.Nop())
}

func TestShowEpisodes(t *testing.T) {
	t.Parallel()

	t.Run("scenario", func(t *testing.T) {
		t.Parallel()

		site, err := drtv.NewSite("https://service.example/drtv")
		require.NoError(t, err)
		kind, err := site.Classify(showURL)
		require.NoError(t, err)
		require.Equal(t, drtv.KindShow, kind)

		l := &listing{body: `{"item":{"episodes":{"items":[{"watchPath":"/a_1"},{"watchPath":"/b_2"}]}}}`}
		c := newClient(t, l, 0)

		links, err := c.ShowEpisodes(t.Context(), showURL)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://service.example/drtv/a_1", "https://service.example/drtv/b_2"}, links)
		assert.Equal(t, "/serie/show_123/season_1/episode_45_999", l.lastPath.Load())
	})

	t.Run("empty_listing", func(t *testing.T) {
		t.Parallel()

		l := &listing{body: `{"item":{"episodes":{"items":[]}}}`}
		links, err := newClient(t, l, 0).ShowEpisodes(t.Context(), showURL)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("unexpected_shape_is_not_retried", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{
			`{"item":{}}`,
			`{"item":{"episodes":{"items":{"watchPath":"/a_1"}}}}`,
			`{"item":{"episodes":{"items":[{"watchPath":"/a_1"},{"title":"b"}]}}}`,
			`not json`,
		} {
			l := &listing{body: body}
			_, err := newClient(t, l, 0).ShowEpisodes(t.Context(), showURL)
			require.ErrorIs(t, err, drtv.ErrUnexpectedShape, body)
			assert.EqualValues(t, 1, l.calls.Load(), body)
		}
	})

	t.Run("retries_temporary_statuses", func(t *testing.T) {
		t.Parallel()

		l := &listing{
			statuses: []int{http.StatusServiceUnavailable, http.StatusTooManyRequests},
			body:     `{"item":{"episodes":{"items":[{"watchPath":"/a_1"}]}}}`,
		}
		links, err := newClient(t, l, 0).ShowEpisodes(t.Context(), showURL)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://service.example/drtv/a_1"}, links)
		assert.EqualValues(t, 3, l.calls.Load())
	})

	t.Run("client_error_is_permanent", func(t *testing.T) {
		t.Parallel()

		l := &listing{statuses: []int{http.StatusNotFound}}
		_, err := newClient(t, l, 0).ShowEpisodes(t.Context(), showURL)
		var statusErr *drtv.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.EqualValues(t, 1, l.calls.Load())
	})

	t.Run("memoized", func(t *testing.T) {
		t.Parallel()

		l := &listing{body: `{"item":{"episodes":{"items":[{"watchPath":"/a_1"}]}}}`}
		c := newClient(t, l, time.Minute)

		for range 3 {
			links, err := c.ShowEpisodes(t.Context(), showURL+"\r\n")
			require.NoError(t, err)
			assert.Len(t, links, 1)
		}
		assert.EqualValues(t, 1, l.calls.Load())
	})

	t.Run("foreign_url", func(t *testing.T) {
		t.Parallel()

		l := &listing{}
		_, err := newClient(t, l, 0).ShowEpisodes(t.Context(), "https://other.example/drtv/serie/x_1")
		require.ErrorIs(t, err, drtv.ErrUnverifiedURL)
		assert.Zero(t, l.calls.Load())
	})
}
