package scene

import (
	"fmt"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"model-viewer/internal/framing"
	"model-viewer/internal/primitives"
)

const (
	defaultFovy   = 55
	gridExtent    = 10
	gridMinorStep = 1
	gridMajorStep = 5
	gridAlpha     = 60
)

// Scene is the raylib stage: one camera and at most one model or stand-in primitive.
// All methods must run on the thread that owns the window.
type Scene struct {
	Camera      rl.Camera3D
	GridVisible bool
	lights      Lights

	model       rl.Model
	modelLoaded bool

	fallback       primitives.Def
	fallbackMesh   rl.Mesh
	fallbackMtl    rl.Material
	fallbackLoaded bool

	shader       rl.Shader
	shaderLoaded bool
}

// New returns a scene with a perspective camera at the fallback pose. fovy <= 0 uses 55°.
// No GPU resources are created until a model or fallback is shown.
func New(fovy float32) *Scene {
	if fovy <= 0 {
		fovy = defaultFovy
	}
	s := &Scene{lights: DefaultLights()}
	s.Camera.Up = rl.NewVector3(0, 1, 0)
	s.Camera.Fovy = fovy
	s.Camera.Projection = rl.CameraPerspective
	s.SetCamera(framing.FallbackCameraPose())
	return s
}

// ShowModel loads the model at path and places it: translate, then scale uniformly.
// Any previous model or fallback is released.
func (s *Scene) ShowModel(path string, pl framing.Placement) error {
	m := rl.LoadModel(path)
	if !rl.IsModelValid(m) || m.MeshCount == 0 {
		rl.UnloadModel(m)
		return fmt.Errorf("scene: could not load model %s", path)
	}
	s.clear()

	trans := rl.MatrixTranslate(pl.Translation.X, pl.Translation.Y, pl.Translation.Z)
	scale := rl.MatrixScale(pl.Scale, pl.Scale, pl.Scale)
	m.Transform = rl.MatrixMultiply(trans, scale)

	if s.ensureShader() {
		mats := materials(&m)
		for i := range mats {
			mats[i].Shader = s.shader
		}
	}
	s.model = m
	s.modelLoaded = true
	return nil
}

// materials views a model's material array as a slice.
func materials(m *rl.Model) []rl.Material {
	if m.Materials == nil || m.MaterialCount <= 0 {
		return nil
	}
	return unsafe.Slice(m.Materials, m.MaterialCount)
}

// ShowFallback replaces any model with a box built from def, resting where def says.
func (s *Scene) ShowFallback(def primitives.Def) {
	s.clear()
	s.fallback = def
	s.fallbackMesh = rl.GenMeshCube(def.Size[0], def.Size[1], def.Size[2])
	s.fallbackMtl = rl.LoadMaterialDefault()
	if albedo := s.fallbackMtl.GetMap(rl.MapAlbedo); albedo != nil {
		if c, err := primitives.ParseColor(def.Color); err == nil {
			albedo.Color = rl.NewColor(c.R, c.G, c.B, c.A)
		}
	}
	if s.ensureShader() {
		s.fallbackMtl.Shader = s.shader
	}
	s.fallbackLoaded = true
}

// SetCamera moves the camera to pose.
func (s *Scene) SetCamera(pose framing.CameraPose) {
	s.Camera.Position = rl.NewVector3(pose.Position.X, pose.Position.Y, pose.Position.Z)
	s.Camera.Target = rl.NewVector3(pose.Target.X, pose.Target.Y, pose.Target.Z)
}

// SetViewport is a no-op: raylib resizes the GL viewport with the window and BeginMode3D
// rebuilds the projection from the current framebuffer aspect every frame.
func (s *Scene) SetViewport(width, height int) {}

// Draw renders the scene. Call between BeginDrawing and EndDrawing.
func (s *Scene) Draw() {
	rl.BeginMode3D(s.Camera)
	if s.GridVisible {
		drawGrid()
	}
	if s.shaderLoaded {
		s.lights.apply(s.shader)
	}
	switch {
	case s.modelLoaded:
		rl.DrawModel(s.model, rl.NewVector3(0, 0, 0), 1, rl.White)
	case s.fallbackLoaded:
		p := s.fallback.Position
		rl.DrawMesh(s.fallbackMesh, s.fallbackMtl, rl.MatrixTranslate(p[0], p[1], p[2]))
	}
	rl.EndMode3D()
}

// Unload frees every GPU resource the scene holds.
func (s *Scene) Unload() {
	s.clear()
	if s.shaderLoaded {
		rl.UnloadShader(s.shader)
		s.shaderLoaded = false
	}
}

func (s *Scene) clear() {
	if s.modelLoaded {
		// UnloadModel frees material maps but leaves the shared shader alone.
		rl.UnloadModel(s.model)
		s.modelLoaded = false
	}
	if s.fallbackLoaded {
		rl.UnloadMesh(&s.fallbackMesh)
		s.fallbackMtl.Shader = rl.Shader{}
		rl.UnloadMaterial(s.fallbackMtl)
		s.fallbackLoaded = false
	}
}

func (s *Scene) ensureShader() bool {
	if s.shaderLoaded {
		return true
	}
	sh := loadLitShader()
	if !rl.IsShaderValid(sh) {
		return false
	}
	s.shader = sh
	s.shaderLoaded = true
	return true
}

// drawGrid draws a ground grid on the XZ plane (Y=0) with heavier lines every gridMajorStep.
func drawGrid() {
	minor := rl.NewColor(200, 200, 200, gridAlpha)
	major := rl.NewColor(230, 230, 230, gridAlpha*2)
	var start, end rl.Vector3
	for i := -gridExtent; i <= gridExtent; i += gridMinorStep {
		c := minor
		if i%gridMajorStep == 0 {
			c = major
		}
		start.X, start.Y, start.Z = float32(i), 0, -gridExtent
		end.X, end.Y, end.Z = float32(i), 0, gridExtent
		rl.DrawLine3D(start, end, c)
		start.X, start.Y, start.Z = -gridExtent, 0, float32(i)
		end.X, end.Y, end.Z = gridExtent, 0, float32(i)
		rl.DrawLine3D(start, end, c)
	}
}
