package framing

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Vec3 is a point or direction in world space. float32 to match the renderer.
type Vec3 struct {
	X, Y, Z float32
}

// NewVec3 returns the vector (x, y, z).
func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale multiplies every component by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// MaxComponent returns the largest of X, Y and Z.
func (v Vec3) MaxComponent() float32 {
	return math32.Max(v.X, math32.Max(v.Y, v.Z))
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

// BoundingBox is an axis-aligned box. The zero value is the degenerate box at the origin;
// use NewBoundingBox for an empty box that grows with Extend.
type BoundingBox struct {
	Min Vec3
	Max Vec3
}

// NewBoundingBox returns an empty box: the first Extend sets both corners.
func NewBoundingBox() BoundingBox {
	inf := math32.Inf(1)
	return BoundingBox{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to include p.
func (b *BoundingBox) Extend(p Vec3) {
	b.Min = Vec3{math32.Min(b.Min.X, p.X), math32.Min(b.Min.Y, p.Y), math32.Min(b.Min.Z, p.Z)}
	b.Max = Vec3{math32.Max(b.Max.X, p.X), math32.Max(b.Max.Y, p.Y), math32.Max(b.Max.Z, p.Z)}
}

// Empty reports whether the box contains no point, i.e. Min exceeds Max on some axis.
func (b BoundingBox) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Size returns Max - Min.
func (b BoundingBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns (Min + Max) / 2.
func (b BoundingBox) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Corners returns the eight corner points of the box.
func (b BoundingBox) Corners() [8]Vec3 {
	lo, hi := b.Min, b.Max
	return [8]Vec3{
		{lo.X, lo.Y, lo.Z},
		{lo.X, lo.Y, hi.Z},
		{lo.X, hi.Y, lo.Z},
		{lo.X, hi.Y, hi.Z},
		{hi.X, lo.Y, lo.Z},
		{hi.X, lo.Y, hi.Z},
		{hi.X, hi.Y, lo.Z},
		{hi.X, hi.Y, hi.Z},
	}
}
