// Package asset fetches a single glTF model in the background and measures its bounds.
package asset

import (
	"context"
	"io/fs"
	"net/http"
	"os"

	"model-viewer/internal/framing"
)

// progressBuffer is how many progress values may queue up before new ones are dropped.
const progressBuffer = 16

// Progress is a snapshot of how much of the asset has been read.
type Progress struct {
	Loaded int64
	Total  int64 // -1 when the size is not known up front
}

// Percent returns Loaded/Total in percent, or -1 when Total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Loaded) / float64(p.Total) * 100
}

// Asset is a fetched and parsed model, ready to hand to the renderer.
type Asset struct {
	Source     string
	Path       string // file on disk the renderer should load
	Bounds     framing.BoundingBox
	Meshes     int
	Primitives int
	Bytes      int64
	cleanup    func()
}

// Release removes any temporary file made for the asset. Call it once the renderer has
// loaded Path. Safe to call more than once.
func (a *Asset) Release() {
	if a == nil || a.cleanup == nil {
		return
	}
	a.cleanup()
	a.cleanup = nil
}

// Result is the outcome of a load: exactly one of Asset and Err is set.
type Result struct {
	Asset *Asset
	Err   error
}

// Load is one in-flight fetch. Progress yields zero or more values and is closed before the
// single Result is sent on Done; Done is closed right after. Neither is restartable.
type Load struct {
	Source   string
	Progress <-chan Progress
	Done     <-chan Result
}

// Wait drains Progress and blocks until the result arrives or ctx ends. It must not be mixed
// with reading Done directly.
func (l *Load) Wait(ctx context.Context) (Result, error) {
	progress := l.Progress
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case _, ok := <-progress:
			if !ok {
				progress = nil
			}
		case r := <-l.Done:
			return r, nil
		}
	}
}

// Loader fetches models from a local asset directory or over HTTP.
type Loader struct {
	FS      fs.FS        // local assets; names are slash-separated paths inside it
	Root    string       // directory on disk that FS is rooted at, used to build Asset.Path
	Client  *http.Client // nil uses a client with a 60 s timeout
	TempDir string       // where downloaded models are written; "" uses os.TempDir()
}

// NewLoader returns a Loader for models stored under dir.
func NewLoader(dir string) *Loader {
	return &Loader{FS: os.DirFS(dir), Root: dir}
}

// Start begins fetching name in a new goroutine and returns immediately. name is either a
// path inside the asset directory or an http(s) URL. Failures arrive on Done as *LoadError.
func (l *Loader) Start(ctx context.Context, name string) *Load {
	progress := make(chan Progress, progressBuffer)
	done := make(chan Result, 1)
	go func() {
		report := func(p Progress) {
			select {
			case progress <- p:
			default:
			}
		}
		a, err := l.load(ctx, name, report)
		close(progress)
		if err != nil {
			done <- Result{Err: err}
		} else {
			done <- Result{Asset: a}
		}
		close(done)
	}()
	return &Load{Source: name, Progress: progress, Done: done}
}

func (l *Loader) load(ctx context.Context, name string, report func(Progress)) (*Asset, error) {
	var (
		f   fetched
		err error
	)
	if isURL(name) {
		f, err = l.fetchRemote(ctx, name, report)
	} else {
		f, err = l.fetchLocal(ctx, name, report)
	}
	if err != nil {
		return nil, err
	}

	info, err := parseModel(ctx, f.data)
	if err != nil {
		if f.cleanup != nil {
			f.cleanup()
		}
		return nil, &LoadError{Source: name, Op: "parse", Err: err}
	}
	return &Asset{
		Source:     name,
		Path:       f.path,
		Bounds:     info.bounds,
		Meshes:     info.meshes,
		Primitives: info.primitives,
		Bytes:      int64(len(f.data)),
		cleanup:    f.cleanup,
	}, nil
}
