package asset

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
	"strings"
	"time"
)

const (
	defaultUserAgent = "model-viewer/1.0"
	fetchTimeout     = 60 * time.Second
)

// fetched is the raw bytes of a model plus where the renderer can find them on disk.
type fetched struct {
	data    []byte
	path    string
	cleanup func()
}

func isURL(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// fetchLocal reads name from the asset directory. A leading slash is accepted, as in a
// site-relative URL ("/bed.glb").
func (l *Loader) fetchLocal(ctx context.Context, name string, report func(Progress)) (fetched, error) {
	if l.FS == nil {
		return fetched{}, &LoadError{Source: name, Op: "open", Err: fmt.Errorf("no asset directory")}
	}
	rel := strings.TrimPrefix(path.Clean("/"+name), "/")
	if !fs.ValidPath(rel) || rel == "." {
		return fetched{}, &LoadError{Source: name, Op: "open", Err: fs.ErrInvalid}
	}
	f, err := l.FS.Open(rel)
	if err != nil {
		return fetched{}, &LoadError{Source: name, Op: "open", Err: err}
	}
	defer f.Close()

	total := int64(-1)
	if st, err := f.Stat(); err == nil {
		if st.IsDir() {
			return fetched{}, &LoadError{Source: name, Op: "open", Err: fmt.Errorf("%s is a directory", rel)}
		}
		total = st.Size()
	}
	data, err := io.ReadAll(&progressReader{ctx: ctx, r: f, total: total, report: report})
	if err != nil {
		return fetched{}, &LoadError{Source: name, Op: "read", Err: err}
	}
	return fetched{data: data, path: filepath.Join(l.Root, filepath.FromSlash(rel))}, nil
}

// fetchRemote downloads url into a temporary file, since the renderer only loads models
// from disk.
func (l *Loader) fetchRemote(ctx context.Context, rawURL string, report func(Progress)) (fetched, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(&progressReader{ctx: ctx, r: resp.Body, total: resp.ContentLength, report: report})
	if err != nil {
		return fetched{}, &LoadError{Source: rawURL, Op: "read", Err: err}
	}

	out, err := os.CreateTemp(l.TempDir, "model-*"+extensionFromURL(rawURL))
	if err != nil {
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: err}
	}
	name := out.Name()
	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		_ = os.Remove(name)
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: err}
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(name)
		return fetched{}, &LoadError{Source: rawURL, Op: "fetch", Err: err}
	}
	return fetched{data: data, path: name, cleanup: func() { _ = os.Remove(name) }}, nil
}

// extensionFromURL keeps .glb/.gltf so the renderer picks the right importer; anything else
// is assumed to be binary glTF.
func extensionFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".glb", ".gltf":
		return ext
	}
	return ".glb"
}

// progressReader reports the running byte count after every read and stops once ctx ends.
type progressReader struct {
	ctx    context.Context
	r      io.Reader
	loaded int64
	total  int64
	report func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	if err := p.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.report(Progress{Loaded: p.loaded, Total: p.total})
	}
	return n, err
}
