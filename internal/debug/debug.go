package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// updateInterval: only refresh the text every N frames to reduce allocations.
	updateInterval = 30
)

// Overlay draws optional diagnostics in the top-left corner: FPS, heap size and a status line.
// Everything is off by default.
type Overlay struct {
	ShowFPS      bool
	ShowMemAlloc bool
	// Status, when set, is polled every updateInterval frames for one line of viewer state.
	Status func() string

	frameCount uint32
	lines      []string
	memStats   runtime.MemStats
}

// New returns an overlay with every line hidden.
func New() *Overlay {
	return &Overlay{}
}

func (o *Overlay) enabled() bool {
	return o.ShowFPS || o.ShowMemAlloc || o.Status != nil
}

func (o *Overlay) refresh() {
	o.lines = o.lines[:0]
	if o.ShowFPS {
		o.lines = append(o.lines, fmt.Sprintf("FPS: %d", rl.GetFPS()))
	}
	if o.ShowMemAlloc {
		runtime.ReadMemStats(&o.memStats)
		o.lines = append(o.lines, fmt.Sprintf("Mem: %.2f MiB", float64(o.memStats.Alloc)/(1024*1024)))
	}
	if o.Status != nil {
		if s := o.Status(); s != "" {
			o.lines = append(o.lines, s)
		}
	}
}

// Draw renders the enabled lines. Call after the scene, outside 3D mode.
func (o *Overlay) Draw() {
	if !o.enabled() {
		return
	}
	if o.frameCount%updateInterval == 0 {
		o.refresh()
	}
	o.frameCount++

	y := int32(padding)
	for _, line := range o.lines {
		rl.DrawText(line, padding, y, fontSize, rl.RayWhite)
		y += lineHeight
	}
}
