package fileloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/roach88/rivecq/internal/rive"
)

type kind int

const (
	kindLocal kind = iota
	kindURL
	kindBytes
)

// Source names where file bytes come from.
type Source struct {
	kind kind
	loc  string
	data []byte
}

// LocalFile reads a file from disk.
func LocalFile(path string) Source { return Source{kind: kindLocal, loc: path} }

// URL downloads a file with GET.
func URL(url string) Source { return Source{kind: kindURL, loc: url} }

// Bytes uses data as is.
func Bytes(data []byte) Source { return Source{kind: kindBytes, data: data} }

func (s Source) String() string {
	switch s.kind {
	case kindLocal:
		return "file:" + s.loc
	case kindURL:
		return s.loc
	}
	return fmt.Sprintf("bytes(%d)", len(s.data))
}

// Loader loads sources. The zero value is not usable; call New.
type Loader struct {
	client *http.Client
	cache  *Cache
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for URL sources. Default: http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.client = c
	}
}

// WithCache serves URL sources from c when possible and stores fresh downloads
// in it.
func WithCache(c *Cache) Option {
	return func(l *Loader) {
		l.cache = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{client: http.DefaultClient, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the bytes of src.
//
// Errors:
//   - MISSING_FILE: a local file does not exist
//   - INVALID_DATA: a local file exists but cannot be read
//   - MISSING_DATA: a download failed or returned an empty body, or Bytes
//     was given no data
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	switch src.kind {
	case kindLocal:
		return l.loadLocal(src.loc)
	case kindURL:
		return l.loadURL(ctx, src.loc)
	}
	if len(src.data) == 0 {
		return nil, &rive.Error{Code: rive.ErrCodeMissingData, Message: "file data is empty"}
	}
	return src.data, nil
}

// Bind adapts src to rive.Source, for rive.OpenFile.
func (l *Loader) Bind(src Source) rive.Source {
	return bound{l: l, src: src}
}

type bound struct {
	l   *Loader
	src Source
}

func (b bound) Load(ctx context.Context) ([]byte, error) {
	return b.l.Load(ctx, b.src)
}

func (l *Loader) loadLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &rive.Error{Code: rive.ErrCodeMissingFile, Message: "file not found", Value: path, Err: err}
	case err != nil:
		return nil, &rive.Error{Code: rive.ErrCodeInvalidData, Message: "file could not be read", Value: path, Err: err}
	}
	l.logger.Debug("local file read", "path", path, "bytes", len(data))
	return data, nil
}

func (l *Loader) loadURL(ctx context.Context, url string) ([]byte, error) {
	if l.cache != nil {
		data, ok, err := l.cache.Get(url)
		if err != nil {
			l.logger.Warn("cache read failed", "url", url, "error", err)
		} else if ok {
			l.logger.Debug("download served from cache", "url", url, "bytes", len(data))
			return data, nil
		}
	}

	data, err := l.download(ctx, url)
	if err != nil {
		return nil, &rive.Error{Code: rive.ErrCodeMissingData, Message: "download failed", Value: url, Err: err}
	}
	if len(data) == 0 {
		return nil, &rive.Error{Code: rive.ErrCodeMissingData, Message: "download returned no data", Value: url}
	}
	l.logger.Debug("downloaded", "url", url, "bytes", len(data))

	if l.cache != nil {
		if err := l.cache.Put(url, data); err != nil {
			l.logger.Warn("cache write failed", "url", url, "error", err)
		}
	}
	return data, nil
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
