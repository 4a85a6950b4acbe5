package fileloader

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/testutil"
)

func newTestLoader(opts ...Option) *Loader {
	return New(append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)...)
}

func TestLoad_LocalFile(t *testing.T) {
	l := newTestLoader()
	ctx := testutil.Context(t)

	data, err := l.Load(ctx, LocalFile(testutil.ScenePath("hero.yaml")))
	require.NoError(t, err)
	assert.Equal(t, testutil.LoadScene(t, "hero.yaml"), data)
}

func TestLoad_LocalFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "404.yaml")
	_, err := newTestLoader().Load(testutil.Context(t), LocalFile(missing))

	var rerr *rive.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, rive.ErrCodeMissingFile, rerr.Code)
	assert.Equal(t, missing, rerr.Value)
}

func TestLoad_LocalFileUnreadable(t *testing.T) {
	// Reading a directory fails after the path is found.
	_, err := newTestLoader().Load(testutil.Context(t), LocalFile(t.TempDir()))
	assert.True(t, rive.HasCode(err, rive.ErrCodeInvalidData), "got %v", err)
}

func TestLoad_Bytes(t *testing.T) {
	data, err := newTestLoader().Load(testutil.Context(t), Bytes([]byte{0, 1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, data)
}

func TestLoad_BytesEmpty(t *testing.T) {
	for _, data := range [][]byte{nil, {}} {
		_, err := newTestLoader().Load(testutil.Context(t), Bytes(data))
		assert.True(t, rive.IsMissingData(err), "got %v", err)
	}
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{1})
	}))
	defer srv.Close()

	data, err := newTestLoader(WithHTTPClient(srv.Client())).Load(testutil.Context(t), URL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
}

func TestLoad_URLFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestLoader().Load(testutil.Context(t), URL(srv.URL))
			var rerr *rive.Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, rive.ErrCodeMissingData, rerr.Code)
			assert.Equal(t, srv.URL, rerr.Value)
		})
	}
}

func TestLoad_URLUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestLoader().Load(testutil.Context(t), URL(url))
	assert.True(t, rive.IsMissingData(err), "got %v", err)
}

func TestLoad_URLCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("scene"))
	}))
	defer srv.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	l := newTestLoader(WithCache(cache))
	ctx := testutil.Context(t)
	for range 3 {
		data, err := l.Load(ctx, URL(srv.URL))
		require.NoError(t, err)
		assert.Equal(t, []byte("scene"), data)
	}
	assert.Equal(t, int32(1), hits.Load())

	keys, err := cache.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL}, keys)
}

func TestBind_OpensFileOverSimulator(t *testing.T) {
	w := testutil.NewWorld(t)
	l := newTestLoader()

	f, err := rive.OpenFile(testutil.Context(t), w.Worker, l.Bind(LocalFile(testutil.ScenePath("hero.yaml"))))
	require.NoError(t, err)
	defer f.Close()

	_, err = rive.OpenFile(testutil.Context(t), w.Worker, l.Bind(LocalFile("nope.yaml")))
	assert.True(t, rive.HasCode(err, rive.ErrCodeMissingFile), "got %v", err)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "file:a.yaml", LocalFile("a.yaml").String())
	assert.Equal(t, "https://example.com/a.yaml", URL("https://example.com/a.yaml").String())
	assert.Equal(t, "bytes(3)", Bytes([]byte("abc")).String())
}
