package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"
)

const maxRemoteTemplate = 8 << 20

// Content is loaded template text together with its origin. Includes inside
// file and fs.FS templates resolve relative to the including template's
// directory; inline and remote templates resolve includes against the
// working directory.
type Content struct {
	source Source
	raw    []byte
	files  fs.FS
}

// NewContent wraps raw template text loaded from src.
func NewContent(src Source, raw []byte) (Content, error) {
	if src == nil {
		return Content{}, errors.New("template: source is required")
	}
	if len(raw) == 0 {
		return Content{}, fmt.Errorf("template: %s is empty", src.Location())
	}
	return Content{source: src, raw: append([]byte(nil), raw...)}, nil
}

// Source returns the origin of the content.
func (c Content) Source() Source { return c.source }

// Raw returns a copy of the template text.
func (c Content) Raw() []byte { return append([]byte(nil), c.raw...) }

// Location returns the string identifier for the origin.
func (c Content) Location() string {
	if c.source == nil {
		return ""
	}
	return c.source.Location()
}

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem backs SourceFromFS lookups.
	FileSystem fs.FS

	// HTTPClient allows callers to inject custom HTTP behaviour. Nil means
	// URL sources are disabled unless AllowHTTPFallback is true.
	HTTPClient *http.Client

	// AllowHTTPFallback enables URL sources using a default client.
	AllowHTTPFallback bool

	// RequestTimeout caps remote fetch durations.
	RequestTimeout time.Duration
}

// LoaderOption mutates LoaderOptions prior to construction.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS for SourceFromFS lookups.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote templates.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables remote templates using a default client with an
// optional timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = true
		opts.RequestTimeout = timeout
	}
}

// Loader fetches template text from files, fs.FS entries, URLs or strings.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader constructs a Loader. URL sources stay disabled unless an HTTP
// client or the HTTP fallback is configured.
func NewLoader(options ...LoaderOption) *Loader {
	cfg := LoaderOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var httpClient *http.Client
	switch {
	case cfg.HTTPClient != nil:
		clone := *cfg.HTTPClient
		if cfg.RequestTimeout > 0 && clone.Timeout == 0 {
			clone.Timeout = cfg.RequestTimeout
		}
		httpClient = &clone
	case cfg.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Loader{fs: cfg.FileSystem, http: httpClient, timeout: cfg.RequestTimeout}
}

// Load fetches the template text identified by src.
func (l *Loader) Load(ctx context.Context, src Source) (Content, error) {
	if src == nil {
		return Content{}, errors.New("template loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}

	var (
		content Content
		err     error
	)
	switch src.Kind() {
	case SourceKindFile:
		content, err = l.loadFile(src)
	case SourceKindFS:
		content, err = l.loadFS(src)
	case SourceKindURL:
		content, err = l.loadHTTP(ctx, src)
	case SourceKindString:
		text := ""
		if s, ok := src.(stringSource); ok {
			text = s.text
		}
		content, err = NewContent(src, []byte(text))
	default:
		err = fmt.Errorf("template loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Content{}, err
	}
	return content, nil
}

func (l *Loader) loadFile(src Source) (Content, error) {
	data, err := os.ReadFile(src.Location())
	if err != nil {
		return Content{}, fmt.Errorf("template loader: read %s: %w", src.Location(), err)
	}
	content, err := NewContent(src, data)
	if err != nil {
		return Content{}, err
	}
	content.files = os.DirFS(filepath.Dir(src.Location()))
	return content, nil
}

func (l *Loader) loadFS(src Source) (Content, error) {
	if l.fs == nil {
		return Content{}, errors.New("template loader: filesystem is not configured")
	}
	name := src.Location()
	if name == "" {
		return Content{}, errors.New("template loader: fs path is required")
	}
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return Content{}, fmt.Errorf("template loader: read %s: %w", name, err)
	}
	content, err := NewContent(src, data)
	if err != nil {
		return Content{}, err
	}
	content.files = l.fs
	if dir := path.Dir(name); dir != "." {
		if sub, err := fs.Sub(l.fs, dir); err == nil {
			content.files = sub
		}
	}
	return content, nil
}

func (l *Loader) loadHTTP(ctx context.Context, src Source) (Content, error) {
	if l.http == nil {
		return Content{}, errors.New("template loader: http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location(), nil)
	if err != nil {
		return Content{}, fmt.Errorf("template loader: build request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return Content{}, fmt.Errorf("template loader: fetch %s: %w", src.Location(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Content{}, fmt.Errorf("template loader: fetch %s: unexpected status %s", src.Location(), resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteTemplate+1))
	if err != nil {
		return Content{}, fmt.Errorf("template loader: read %s: %w", src.Location(), err)
	}
	if len(data) > maxRemoteTemplate {
		return Content{}, fmt.Errorf("template loader: fetch %s: %w", src.Location(), ErrTemplateTooLarge)
	}
	return NewContent(src, data)
}
