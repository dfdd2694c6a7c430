package download_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/drtv/download"
	"github.com/xeptore/drtvd/drtv/fanout"
	"github.com/xeptore/drtvd/drtv/fs"
)

var errConvert = errors.New("convert failed")

type fileConverter struct {
	failOn string
}

func (c fileConverter) Convert(_ context.Context, payload []byte, outPath string) error {
	if filepath.Base(outPath) == c.failOn {
		return errConvert
	}
	return os.WriteFile(outPath, payload, 0o600)
}

type recorder struct {
	fanout.NopNotifier
	mu            sync.Mutex
	converting    map[string]string
	convertFailed map[string]error
	failed        map[string]error
}

func (r *recorder) Converting(id, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converting[id] = path
}

func (r *recorder) ConvertFailed(id, _ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convertFailed[id] = err
}

func (r *recorder) Failed(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[id] = err
}

func TestSave(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	rec := &recorder{converting: map[string]string{}, convertFailed: map[string]error{}, failed: map[string]error{}}
	s := download.New(fs.From(dir), fileConverter{failOn: "c_3.mp4"}, rec, zerolog.Nop())

	errFetch := errors.New("fetch failed")
	outcomes := []fanout.Outcome{
		{Index: 0, URL: "u/a_1", Item: drtv.Item{Name: "a:_1", ID: "1"}, Payload: []byte("one")},
		{Index: 1, URL: "u/b_2", Err: errFetch},
		{Index: 2, URL: "u/c_3", Item: drtv.Item{Name: "c_3", ID: "3"}, Payload: []byte("three")},
	}

	results, err := s.Save(t.Context(), outcomes)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(dir, "a_1.mp4"), results[0].Path)
	require.NoError(t, results[0].Err)
	got, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	require.ErrorIs(t, results[1].Err, errFetch)
	assert.Empty(t, results[1].Path)

	require.ErrorIs(t, results[2].Err, errConvert)
	assert.Empty(t, results[2].Path)

	assert.Equal(t, map[string]string{
		"u/a_1": filepath.Join(dir, "a_1.mp4"),
		"u/c_3": filepath.Join(dir, "c_3.mp4"),
	}, rec.converting)
	assert.Equal(t, map[string]error{"u/c_3": errConvert}, rec.convertFailed)
	assert.Empty(t, rec.failed, "fetched items already got their terminal event")
}

func TestSaveCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	s := download.New(fs.From(t.TempDir()), fileConverter{}, nil, zerolog.Nop())
	_, err := s.Save(ctx, []fanout.Outcome{{URL: "u/a_1", Item: drtv.Item{Name: "a_1", ID: "1"}, Payload: []byte("x")}})
	require.ErrorIs(t, err, context.Canceled)
}
