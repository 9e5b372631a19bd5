package viewer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-viewer/internal/asset"
	"model-viewer/internal/framing"
	"model-viewer/internal/logger"
	"model-viewer/internal/primitives"
)

type fakeStage struct {
	calls     []string
	modelPath string
	placement framing.Placement
	fallback  *primitives.Def
	camera    framing.CameraPose
	width     int
	height    int
	modelErr  error
}

func (s *fakeStage) ShowModel(path string, pl framing.Placement) error {
	s.calls = append(s.calls, "model")
	if s.modelErr != nil {
		return s.modelErr
	}
	s.modelPath, s.placement = path, pl
	return nil
}

func (s *fakeStage) ShowFallback(def primitives.Def) {
	s.calls = append(s.calls, "fallback")
	s.fallback = &def
}

func (s *fakeStage) SetCamera(pose framing.CameraPose) {
	s.calls = append(s.calls, "camera")
	s.camera = pose
}

func (s *fakeStage) SetViewport(width, height int) {
	s.calls = append(s.calls, "viewport")
	s.width, s.height = width, height
}

type fakeStarter struct {
	progress chan asset.Progress
	done     chan asset.Result
	starts   int
	source   string
}

func newFakeStarter() *fakeStarter {
	return &fakeStarter{progress: make(chan asset.Progress, 8), done: make(chan asset.Result, 1)}
}

func (f *fakeStarter) Start(_ context.Context, name string) *asset.Load {
	f.starts++
	f.source = name
	return &asset.Load{Source: name, Progress: f.progress, Done: f.done}
}

func (f *fakeStarter) finish(r asset.Result) {
	close(f.progress)
	f.done <- r
	close(f.done)
}

func quietLogger() *logger.Logger {
	l := logger.New("")
	l.SetMirror(nil)
	return l
}

func bounds(minX, minY, minZ, maxX, maxY, maxZ float32) framing.BoundingBox {
	return framing.BoundingBox{Min: framing.NewVec3(minX, minY, minZ), Max: framing.NewVec3(maxX, maxY, maxZ)}
}

func containsLine(lines []string, substr string) bool {
	for _, l := range lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

func TestViewerShowsFramedModel(t *testing.T) {
	stage := &fakeStage{}
	starter := newFakeStarter()
	log := quietLogger()
	v := New(stage, starter, log, Options{Source: "bed.glb", DesiredSize: 3})
	assert.Equal(t, StateIdle, v.State())

	v.Start(context.Background())
	v.Start(context.Background())
	assert.Equal(t, 1, starter.starts)
	assert.Equal(t, "bed.glb", starter.source)
	assert.Equal(t, StateLoading, v.State())

	starter.progress <- asset.Progress{Loaded: 25, Total: 100}
	v.Update()
	assert.Empty(t, stage.calls)
	assert.True(t, containsLine(log.Lines(), "Loading progress: 25%"))

	starter.progress <- asset.Progress{Loaded: 100, Total: 100}
	starter.finish(asset.Result{Asset: &asset.Asset{
		Source: "bed.glb",
		Path:   "assets/bed.glb",
		Bounds: bounds(0, 2, 0, 4, 6, 2),
	}})
	v.Update()

	assert.Equal(t, []string{"model", "camera"}, stage.calls)
	assert.Equal(t, "assets/bed.glb", stage.modelPath)
	assert.InDelta(t, 0.75, stage.placement.Scale, 1e-6)
	assert.Equal(t, framing.NewVec3(-2, -2, -1), stage.placement.Translation)
	// horizontal extent 4 * 0.75 = 3, distance 6
	assert.InDelta(t, 4.8, stage.camera.Position.X, 1e-5)
	assert.InDelta(t, 3.6, stage.camera.Position.Y, 1e-5)
	assert.InDelta(t, 7.2, stage.camera.Position.Z, 1e-5)
	assert.Equal(t, framing.Vec3{}, stage.camera.Target)

	assert.Equal(t, StateReady, v.State())
	f, ok := v.Framing()
	assert.True(t, ok)
	assert.Equal(t, framing.NewVec3(4, 4, 2), f.Size)
	assert.NoError(t, v.Err())
	assert.True(t, containsLine(log.Lines(), "Loading progress: 100%"))
	assert.True(t, containsLine(log.Lines(), "Model loaded"))

	// Nothing more happens on later frames.
	v.Update()
	assert.Len(t, stage.calls, 2)
}

func TestViewerFallsBackOnLoadError(t *testing.T) {
	stage := &fakeStage{}
	starter := newFakeStarter()
	log := quietLogger()
	v := New(stage, starter, log, Options{Source: "bed.glb"})
	v.Start(context.Background())

	loadErr := &asset.LoadError{Source: "bed.glb", Op: "open", Err: errors.New("no such file")}
	starter.finish(asset.Result{Err: loadErr})
	v.Update()

	assert.Equal(t, []string{"fallback", "camera"}, stage.calls)
	require.NotNil(t, stage.fallback)
	assert.Equal(t, primitives.Fallback(), *stage.fallback)
	assert.Equal(t, framing.NewVec3(4, 3, 5), stage.camera.Position)
	assert.Equal(t, framing.Vec3{}, stage.camera.Target)

	assert.Equal(t, StateFallback, v.State())
	assert.ErrorIs(t, v.Err(), loadErr)
	f, ok := v.Framing()
	assert.True(t, ok)
	assert.Equal(t, framing.NewVec3(0, 0.25, 0), f.Placement.Apply(framing.Vec3{}))
	assert.Equal(t, float32(1), f.Placement.Scale)
	assert.True(t, containsLine(log.Lines(), "Using fallback geometry"))

	v.Update()
	assert.Len(t, stage.calls, 2, "fallback is never retried")
}

func TestViewerFallsBackWhenStageRejectsModel(t *testing.T) {
	stage := &fakeStage{modelErr: errors.New("unsupported")}
	starter := newFakeStarter()
	v := New(stage, starter, quietLogger(), Options{Source: "bed.glb"})
	v.Start(context.Background())
	starter.finish(asset.Result{Asset: &asset.Asset{Source: "bed.glb", Bounds: bounds(0, 0, 0, 1, 1, 1)}})
	v.Update()

	assert.Equal(t, []string{"model", "fallback", "camera"}, stage.calls)
	assert.Equal(t, StateFallback, v.State())
	assert.True(t, asset.IsLoadError(v.Err()))
}

func TestViewerDegenerateModelStaysFinite(t *testing.T) {
	stage := &fakeStage{}
	starter := newFakeStarter()
	log := quietLogger()
	v := New(stage, starter, log, Options{Source: "dot.glb"})
	v.Start(context.Background())
	starter.finish(asset.Result{Asset: &asset.Asset{Source: "dot.glb", Bounds: bounds(1, 1, 1, 1, 1, 1)}})
	v.Update()

	assert.Equal(t, []string{"model", "camera"}, stage.calls)
	assert.Equal(t, float32(framing.DefaultScale), stage.placement.Scale)
	assert.True(t, stage.placement.Translation.IsFinite())
	assert.True(t, stage.camera.Position.IsFinite())
	assert.Equal(t, StateReady, v.State())
	assert.True(t, containsLine(log.Lines(), "no usable extent"))
}

func TestViewerDoneClosedWithoutResult(t *testing.T) {
	stage := &fakeStage{}
	starter := newFakeStarter()
	v := New(stage, starter, quietLogger(), Options{Source: "bed.glb"})
	v.Start(context.Background())
	close(starter.progress)
	close(starter.done)
	v.Update()
	assert.Equal(t, StateFallback, v.State())
}

func TestViewerResize(t *testing.T) {
	stage := &fakeStage{}
	v := New(stage, newFakeStarter(), quietLogger(), Options{})

	// Resize may arrive before the load has even started.
	v.Resize(800, 600)
	assert.Equal(t, 800, stage.width)
	assert.Equal(t, 600, stage.height)

	v.Resize(0, 600)
	v.Resize(800, 0)
	assert.Equal(t, []string{"viewport"}, stage.calls)
	w, h := v.Viewport()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestViewerDefaults(t *testing.T) {
	v := New(&fakeStage{}, newFakeStarter(), quietLogger(), Options{})
	assert.Equal(t, float32(framing.DefaultDesiredSize), v.opts.DesiredSize)
	assert.Equal(t, primitives.Fallback(), v.opts.Fallback)
	assert.Equal(t, "fallback", StateFallback.String())
}

func TestViewerNonFiniteDesiredSize(t *testing.T) {
	for _, size := range []float32{math32.NaN(), math32.Inf(1), math32.Inf(-1), -2} {
		stage := &fakeStage{}
		starter := newFakeStarter()
		v := New(stage, starter, quietLogger(), Options{Source: "bed.glb", DesiredSize: size})
		assert.Equal(t, float32(framing.DefaultDesiredSize), v.opts.DesiredSize)

		v.Start(context.Background())
		starter.finish(asset.Result{Asset: &asset.Asset{Source: "bed.glb", Path: "bed.glb", Bounds: bounds(0, 2, 0, 4, 6, 2)}})
		v.Update()

		assert.Equal(t, []string{"model", "camera"}, stage.calls, "size %v", size)
		assert.Equal(t, StateReady, v.State())
		assert.InDelta(t, 0.75, stage.placement.Scale, 1e-6)
	}
}

// The remaining tests run the real loader against an in-memory asset directory.

func glbWithBox(t *testing.T, lo, hi [3]float32) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{lo, hi, {hi[0], lo[1], hi[2]}})
	doc.Meshes = []*gltf.Mesh{{Primitives: []*gltf.Primitive{{
		Attributes: map[string]int{gltf.POSITION: pos},
	}}}}
	doc.Nodes = []*gltf.Node{{Mesh: gltf.Index(0), Scale: [3]float64{1, 1, 1}, Rotation: [4]float64{0, 0, 0, 1}}}
	doc.Scenes[0].Nodes = []int{0}
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	require.NoError(t, enc.Encode(doc))
	return buf.Bytes()
}

func runUntilSettled(t *testing.T, v *Viewer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for v.State() == StateLoading {
		if time.Now().After(deadline) {
			t.Fatal("viewer still loading")
		}
		v.Update()
		time.Sleep(time.Millisecond)
	}
}

func TestViewerWithLoader(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	require.NoError(t, hackpadfs.WriteFullFile(fsys, "bed.glb", glbWithBox(t, [3]float32{0, 2, 0}, [3]float32{4, 6, 2}), 0o644))

	stage := &fakeStage{}
	v := New(stage, &asset.Loader{FS: fsys, Root: "assets"}, quietLogger(), Options{Source: "/bed.glb", DesiredSize: 3})
	v.Start(context.Background())
	runUntilSettled(t, v)

	require.Equal(t, StateReady, v.State())
	assert.Equal(t, "assets/bed.glb", stage.modelPath)
	assert.InDelta(t, 0.75, stage.placement.Scale, 1e-6)
	assert.InDelta(t, -2, stage.placement.Translation.X, 1e-6)
	assert.InDelta(t, -2, stage.placement.Translation.Y, 1e-6)
	assert.InDelta(t, -1, stage.placement.Translation.Z, 1e-6)
}

func TestViewerWithLoaderMissingAsset(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)

	stage := &fakeStage{}
	v := New(stage, &asset.Loader{FS: fsys, Root: "assets"}, quietLogger(), Options{Source: "bed.glb"})
	v.Start(context.Background())
	runUntilSettled(t, v)

	assert.Equal(t, StateFallback, v.State())
	assert.Equal(t, framing.FallbackCameraPose(), stage.camera)
	assert.True(t, asset.IsLoadError(v.Err()))
}
