// Package viewer ties one model load to the stage it is shown on. A Viewer is the explicit
// context passed to the frame loop's update and resize callbacks.
package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/chewxy/math32"

	"model-viewer/internal/asset"
	"model-viewer/internal/framing"
	"model-viewer/internal/logger"
	"model-viewer/internal/primitives"
)

// Stage is the renderer side of the viewer. All methods are called on the render thread.
type Stage interface {
	// ShowModel loads the model file at path and places it.
	ShowModel(path string, pl framing.Placement) error
	// ShowFallback replaces any model with the given stand-in primitive.
	ShowFallback(def primitives.Def)
	SetCamera(pose framing.CameraPose)
	SetViewport(width, height int)
}

// Starter begins an asynchronous model load. *asset.Loader implements it.
type Starter interface {
	Start(ctx context.Context, name string) *asset.Load
}

// State is where the viewer is in its one-shot lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFallback:
		return "fallback"
	}
	return "unknown"
}

// Options configure a Viewer. Zero values take defaults.
type Options struct {
	Source      string         // asset name or URL
	DesiredSize float32        // target size of the model's largest dimension
	Fallback    primitives.Def // shape shown when the load fails
}

// Viewer owns a single load and applies its result to the stage exactly once. Update and
// Resize must be called from the render thread; State, Framing and Err may be called from
// anywhere.
type Viewer struct {
	stage  Stage
	loader Starter
	log    *logger.Logger
	opts   Options

	// render thread only
	load     *asset.Load
	progress <-chan asset.Progress

	mu      sync.Mutex
	state   State
	framing framing.Framing
	err     error
	width   int
	height  int
}

// New returns an idle Viewer. Call Start to begin loading. A desired size that is not a
// positive finite number is replaced by the default.
func New(stage Stage, loader Starter, log *logger.Logger, opts Options) *Viewer {
	if !(opts.DesiredSize > 0) || math32.IsInf(opts.DesiredSize, 0) {
		opts.DesiredSize = framing.DefaultDesiredSize
	}
	if opts.Fallback.Type == "" {
		opts.Fallback = primitives.Fallback()
	}
	return &Viewer{stage: stage, loader: loader, log: log, opts: opts}
}

// Start begins loading the model. Only the first call has an effect.
func (v *Viewer) Start(ctx context.Context) {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return
	}
	v.state = StateLoading
	v.mu.Unlock()

	v.log.Logf("Loading model %s", v.opts.Source)
	v.load = v.loader.Start(ctx, v.opts.Source)
	v.progress = v.load.Progress
}

// Update logs any pending progress and, once the load has finished, shows the model or the
// fallback. Call once per frame; it never blocks.
func (v *Viewer) Update() {
	if v.load == nil {
		return
	}
	v.drainProgress()
	select {
	case r, ok := <-v.load.Done:
		v.drainProgress()
		v.load = nil
		if !ok {
			v.showFallback(&asset.LoadError{Source: v.opts.Source, Op: "fetch", Err: errors.New("load ended without a result")})
			return
		}
		v.apply(r)
	default:
	}
}

func (v *Viewer) drainProgress() {
	for v.progress != nil {
		select {
		case p, ok := <-v.progress:
			if !ok {
				v.progress = nil
				return
			}
			if pct := p.Percent(); pct >= 0 {
				v.log.Logf("Loading progress: %.0f%%", pct)
			} else {
				v.log.Logf("Loading progress: %d bytes", p.Loaded)
			}
		default:
			return
		}
	}
}

func (v *Viewer) apply(r asset.Result) {
	if r.Err != nil {
		v.showFallback(r.Err)
		return
	}
	a := r.Asset
	defer a.Release()

	f, err := framing.Frame(a.Bounds, v.opts.DesiredSize)
	switch {
	case errors.Is(err, framing.ErrDegenerateGeometry):
		v.log.Logf("Model %s has no usable extent, using scale %v and camera distance %v", a.Source, f.Placement.Scale, f.Camera.Distance())
	case err != nil:
		v.showFallback(err)
		return
	}

	if err := v.stage.ShowModel(a.Path, f.Placement); err != nil {
		v.showFallback(&asset.LoadError{Source: a.Source, Op: "upload", Err: err})
		return
	}
	v.stage.SetCamera(f.Camera)

	v.mu.Lock()
	v.state = StateReady
	v.framing = f
	v.mu.Unlock()

	v.log.Logf("Model loaded: source=%s meshes=%d originalSize=%v scaledSize=%v cameraPosition=%v scale=%.4f",
		a.Source, a.Meshes, f.Size, f.ScaledSize(), f.Camera.Position, f.Placement.Scale)
}

// showFallback is the only recovery path: the stand-in shape and fixed camera, never a retry.
func (v *Viewer) showFallback(err error) {
	v.log.Logf("Error loading model %s: %v", v.opts.Source, err)
	v.stage.ShowFallback(v.opts.Fallback)
	pose := framing.FallbackCameraPose()
	v.stage.SetCamera(pose)

	v.mu.Lock()
	v.state = StateFallback
	v.err = err
	v.framing = framing.Framing{Placement: framing.FallbackPlacement(), Camera: pose}
	v.mu.Unlock()

	v.log.Log("Using fallback geometry")
}

// Resize forwards a new viewport size to the stage. Sizes with a zero dimension (e.g. a
// minimized window) are ignored so the aspect ratio stays finite.
func (v *Viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	v.stage.SetViewport(width, height)
}

// State returns the current lifecycle state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Framing returns the placement and camera that were applied, and whether anything has
// been applied yet.
func (v *Viewer) Framing() (framing.Framing, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.framing, v.state == StateReady || v.state == StateFallback
}

// Err returns the error that caused the fallback, if any.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Viewport returns the last size passed to Resize.
func (v *Viewer) Viewport() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}
