// Package framing places a loaded model on the ground plane at the world origin,
// scales it to a target size and picks a camera pose that frames it.
package framing

import (
	"errors"

	"github.com/chewxy/math32"
)

const (
	// DefaultDesiredSize is the length the model's largest dimension is scaled to.
	DefaultDesiredSize = 3

	// DefaultScale is used when the model has no extent to divide by.
	DefaultScale = 1

	// DefaultDistance replaces the camera distance when the model has no horizontal extent.
	DefaultDistance = 5

	// distanceFactor is how many horizontal extents the camera sits away from the origin.
	distanceFactor = 2
)

// viewDirection is the fixed offset, in units of distance, from the target to the camera:
// a three-quarter view from slightly above.
var viewDirection = Vec3{0.8, 0.6, 1.2}

var (
	// ErrDegenerateGeometry is returned when a box has no extent to frame.
	// Results returned alongside it carry finite defaults.
	ErrDegenerateGeometry = errors.New("framing: degenerate geometry")

	// ErrInvalidSize is returned for a desired size that is not a positive finite number.
	ErrInvalidSize = errors.New("framing: desired size must be positive")
)

// Placement is the transform applied to the model: translate in model space, then scale
// uniformly about the origin.
type Placement struct {
	Translation Vec3
	Scale       float32
}

// Apply returns p moved by the placement: (p + Translation) * Scale.
func (pl Placement) Apply(p Vec3) Vec3 {
	return p.Add(pl.Translation).Scale(pl.Scale)
}

// ApplyBox returns the bounding box of b after placement, re-derived from its corners.
func (pl Placement) ApplyBox(b BoundingBox) BoundingBox {
	out := NewBoundingBox()
	for _, c := range b.Corners() {
		out.Extend(pl.Apply(c))
	}
	return out
}

// CameraPose is where the camera sits and the point it looks at.
type CameraPose struct {
	Position Vec3
	Target   Vec3
}

// Distance returns how far the camera is from its target.
func (c CameraPose) Distance() float32 {
	return c.Position.Sub(c.Target).Length()
}

// ComputePlacement returns the translation that centers box horizontally on the origin with
// its lowest point at y = 0, and the uniform scale that makes its largest dimension
// desiredSize. The vertical translation uses Min.Y rather than the center so the model
// rests on the ground.
//
// For a box with no extent it returns ErrDegenerateGeometry together with a usable
// placement (same translation, DefaultScale).
func ComputePlacement(box BoundingBox, desiredSize float32) (Placement, error) {
	if !finite(desiredSize) || desiredSize <= 0 {
		return Placement{Scale: DefaultScale}, ErrInvalidSize
	}
	if box.Empty() || !box.Min.IsFinite() || !box.Max.IsFinite() {
		return Placement{Scale: DefaultScale}, ErrDegenerateGeometry
	}

	center := box.Center()
	pl := Placement{
		Translation: Vec3{-center.X, -box.Min.Y, -center.Z},
		Scale:       DefaultScale,
	}
	maxDim := box.Size().MaxComponent()
	if maxDim <= 0 {
		return pl, ErrDegenerateGeometry
	}
	scale := desiredSize / maxDim
	if !finite(scale) || scale <= 0 {
		return pl, ErrDegenerateGeometry
	}
	pl.Scale = scale
	return pl, nil
}

// ComputeCameraPose returns a camera looking at the origin from a fixed elevated angle,
// at twice the model's scaled horizontal extent. size is the unscaled box size.
//
// When the horizontal extent is zero the pose uses DefaultDistance and
// ErrDegenerateGeometry is returned with it.
func ComputeCameraPose(size Vec3, scale float32) (CameraPose, error) {
	extent := math32.Max(size.X, size.Z) * scale
	if !finite(extent) || extent <= 0 {
		return poseAt(DefaultDistance), ErrDegenerateGeometry
	}
	return poseAt(extent * distanceFactor), nil
}

func poseAt(distance float32) CameraPose {
	return CameraPose{Position: viewDirection.Scale(distance)}
}

// Framing is the result of auto-framing one model.
type Framing struct {
	Size      Vec3 // unscaled bounding box size
	Placement Placement
	Camera    CameraPose
}

// ScaledSize returns the model's size after placement.
func (f Framing) ScaledSize() Vec3 {
	return f.Size.Scale(f.Placement.Scale)
}

// Frame runs ComputePlacement and ComputeCameraPose for box. On ErrDegenerateGeometry the
// returned Framing is still fully finite, built from the defaults, so callers can log the
// error and show the model anyway. ErrInvalidSize is returned as is.
func Frame(box BoundingBox, desiredSize float32) (Framing, error) {
	pl, err := ComputePlacement(box, desiredSize)
	if errors.Is(err, ErrInvalidSize) {
		return Framing{}, err
	}
	f := Framing{Placement: pl}
	if !box.Empty() && box.Min.IsFinite() && box.Max.IsFinite() {
		f.Size = box.Size()
	}
	cam, camErr := ComputeCameraPose(f.Size, pl.Scale)
	f.Camera = cam
	if err == nil {
		err = camErr
	}
	return f, err
}

// FallbackPlacement is where the stand-in shape goes when the model cannot be loaded:
// unscaled, lifted so a 0.5 tall box rests on the ground.
func FallbackPlacement() Placement {
	return Placement{Translation: Vec3{0, 0.25, 0}, Scale: 1}
}

// FallbackCameraPose is the fixed camera used with the stand-in shape.
func FallbackCameraPose() CameraPose {
	return CameraPose{Position: Vec3{4, 3, 5}}
}
