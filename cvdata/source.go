package cvdata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// Source opens files of the homepage tree by slash-separated relative path.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// NewSource returns an HTTPSource for http(s) locations and a DirSource otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if isURL(location) {
		return NewHTTPSource(location, timeout)
	}
	return NewDirSource(location)
}

// DirSource reads from a filesystem tree.
type DirSource struct {
	FS   fs.FS
	Root string
}

func NewDirSource(dir string) *DirSource {
	if dir == "" {
		dir = "."
	}
	return &DirSource{FS: os.DirFS(dir), Root: dir}
}

func (d *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.FS.Open(path.Clean(name))
}

func (d *DirSource) String() string { return d.Root }

// HTTPSource fetches from a base URL. Every request bypasses caches: it sends
// no-cache headers and a "t" query parameter.
type HTTPSource struct {
	Base   *url.URL
	Client *http.Client
	Now    func() time.Time
	raw    string
}

func NewHTTPSource(base string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		u = &url.URL{Path: base}
	}
	return &HTTPSource{
		Base:   u,
		Client: &http.Client{Timeout: timeout},
		Now:    time.Now,
		raw:    base,
	}
}

func (h *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", name, err)
	}
	u := h.Base.ResolveReference(ref)
	return h.get(ctx, u)
}

func (h *HTTPSource) get(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	q := u.Query()
	q.Set("t", strconv.FormatInt(h.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", u.Redacted(), fs.ErrNotExist)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}
	return resp.Body, nil
}

func (h *HTTPSource) String() string { return h.raw }

// ReadAsset reads a font or image location. An http(s) URL is fetched
// directly. An absolute path is read from disk. Anything else is resolved
// against src.
func ReadAsset(ctx context.Context, src Source, location string) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case isURL(location):
		var u *url.URL
		if u, err = url.Parse(location); err != nil {
			return nil, err
		}
		h := NewHTTPSource(location, 0)
		rc, err = h.get(ctx, u)
	case filepath.IsAbs(location):
		rc, err = os.Open(location)
	default:
		if src == nil {
			return nil, fmt.Errorf("relative asset %q without a data source", location)
		}
		rc, err = src.Open(ctx, location)
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
