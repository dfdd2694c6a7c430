package resolve_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/drtv/auth"
	"github.com/xeptore/drtvd/drtv/fs"
	"github.com/xeptore/drtvd/drtv/resolve"
)

type fakeService struct {
	refreshes atomic.Int32
	lookups   atomic.Int32

	mu sync.Mutex
	// statuses returned by successive item lookups; 200 afterwards.
	lookupStatuses []int
	lookupBody     string
	authHeaders    []string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/authorization/refresh":
		f.refreshes.Add(1)
		_, _ = io.WriteString(w, `[{"value":"new-token"}]`)
	case strings.HasPrefix(r.URL.Path, "/api/account/items/"):
		n := int(f.lookups.Add(1))
		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		statuses := f.lookupStatuses
		f.mu.Unlock()
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		_, _ = io.WriteString(w, f.lookupBody)
	case r.URL.Path == "/media/ok.m3u8":
		_, _ = io.WriteString(w, "#EXTM3U")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeService) headers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

func newResolver(t *testing.T, f *fakeService) (*resolve.Resolver, *auth.Session, string) {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	endpoints := drtv.Endpoints{API: srv.URL + "/api", Site: "https://service.example/drtv"}
	store := fs.TokenFile(filepath.Join(t.TempDir(), "token.json"))
	session := auth.New("old-token", http.DefaultClient, store, endpoints, zerolog.Nop())
	return resolve.New(http.DefaultClient, session, endpoints, zerolog.Nop()), session, srv.URL
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		f := &fakeService{lookupBody: `[{"url":"https://cdn.example/999.m3u8"}]`}
		r, _, _ := newResolver(t, f)

		mediaURL, err := r.Resolve(t.Context(), "999")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/999.m3u8", mediaURL)
		assert.Zero(t, f.refreshes.Load())
		assert.Equal(t, []string{"Bearer old-token"}, f.headers())
	})

	t.Run("refreshes_once_and_retries", func(t *testing.T) {
		t.Parallel()

		for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
			f := &fakeService{
				lookupStatuses: []int{status},
				lookupBody:     `[{"url":"https://cdn.example/999.m3u8"}]`,
			}
			r, session, _ := newResolver(t, f)

			mediaURL, err := r.Resolve(t.Context(), "999")
			require.NoError(t, err)
			assert.Equal(t, "https://cdn.example/999.m3u8", mediaURL)
			assert.EqualValues(t, 1, f.refreshes.Load())
			assert.EqualValues(t, 2, f.lookups.Load())
			assert.Equal(t, []string{"Bearer old-token", "Bearer new-token"}, f.headers())
			assert.Equal(t, "new-token", session.Current())
		}
	})

	t.Run("second_rejection_is_unauthorized", func(t *testing.T) {
		t.Parallel()

		f := &fakeService{lookupStatuses: []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized}}
		r, _, _ := newResolver(t, f)

		_, err := r.Resolve(t.Context(), "999")
		require.ErrorIs(t, err, auth.ErrUnauthorized)
		assert.EqualValues(t, 1, f.refreshes.Load())
		assert.EqualValues(t, 2, f.lookups.Load())
	})

	t.Run("other_status_is_not_retried", func(t *testing.T) {
		t.Parallel()

		f := &fakeService{lookupStatuses: []int{http.StatusNotFound}}
		r, _, _ := newResolver(t, f)

		_, err := r.Resolve(t.Context(), "999")
		var statusErr *drtv.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		assert.Zero(t, f.refreshes.Load())
		assert.EqualValues(t, 1, f.lookups.Load())
	})

	t.Run("missing_url", func(t *testing.T) {
		t.Parallel()

		f := &fakeService{lookupBody: `[{"title":"x"}]`}
		r, _, _ := newResolver(t, f)

		_, err := r.Resolve(t.Context(), "999")
		require.ErrorIs(t, err, drtv.ErrUnexpectedShape)
	})
}

func TestFetchPayload(t *testing.T) {
	t.Parallel()

	f := &fakeService{}
	r, _, base := newResolver(t, f)

	payload, err := r.FetchPayload(t.Context(), base+"/media/ok.m3u8")
	require.NoError(t, err)
	assert.Equal(t, []byte("#EXTM3U"), payload)

	_, err = r.FetchPayload(t.Context(), base+"/media/missing.m3u8")
	var statusErr *drtv.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}
