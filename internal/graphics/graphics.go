package graphics

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Options describe the window Run opens.
type Options struct {
	Width, Height int
	Title         string
	Background    color.RGBA
	TargetFPS     int
	// Cleanup runs after the last frame, while the GL context is still alive.
	Cleanup func()
}

// Run opens a resizable, antialiased window and runs the frame loop until the window is
// closed. Before the first frame and whenever the window changes size it calls
// resize(width, height); each frame it then calls update, clears to the background color
// and calls draw. Any callback may be nil.
func Run(opts Options, update, draw func(), resize func(width, height int)) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	defer rl.CloseWindow()
	if opts.Cleanup != nil {
		defer opts.Cleanup()
	}

	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}
	bg := rl.NewColor(opts.Background.R, opts.Background.G, opts.Background.B, 255)

	if resize != nil {
		resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}
	for !rl.WindowShouldClose() {
		if resize != nil && rl.IsWindowResized() {
			resize(rl.GetScreenWidth(), rl.GetScreenHeight())
		}
		if update != nil {
			update()
		}

		rl.BeginDrawing()
		rl.ClearBackground(bg)
		if draw != nil {
			draw()
		}
		rl.EndDrawing()
	}
}
