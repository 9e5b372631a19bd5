package main

import (
	"context"
	"fmt"
	"image/color"
	"os"

	"model-viewer/internal/asset"
	"model-viewer/internal/debug"
	"model-viewer/internal/env"
	"model-viewer/internal/graphics"
	"model-viewer/internal/logger"
	"model-viewer/internal/primitives"
	"model-viewer/internal/scene"
	"model-viewer/internal/viewer"
	"model-viewer/internal/viewerconfig"
)

func main() {
	if _, err := env.Load(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	prefs, cfgErr := viewerconfig.Load(viewerconfig.DefaultPath)
	prefs, envErr := viewerconfig.ApplyEnv(prefs)

	log := logger.New(prefs.LogPath)
	for _, err := range []error{cfgErr, envErr} {
		if err != nil {
			log.Log(err.Error())
		}
	}

	bg, err := primitives.ParseColor(prefs.ClearColor)
	if err != nil {
		log.Log(err.Error())
		bg = color.RGBA{R: 0x6b, G: 0x4f, B: 0x2c, A: 0xff}
	}

	scn := scene.New(prefs.Fovy)
	scn.GridVisible = prefs.ShowGrid
	v := viewer.New(scn, asset.NewLoader(prefs.AssetRoot), log, viewer.Options{
		Source:      prefs.Asset,
		DesiredSize: prefs.DesiredSize,
	})

	overlay := debug.New()
	overlay.ShowFPS = prefs.ShowFPS
	overlay.ShowMemAlloc = prefs.ShowMemAlloc
	if prefs.ShowFPS || prefs.ShowMemAlloc {
		overlay.Status = func() string {
			w, h := v.Viewport()
			return fmt.Sprintf("model: %s  viewport: %dx%d", v.State(), w, h)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.Start(ctx)

	draw := func() {
		scn.Draw()
		overlay.Draw()
	}
	graphics.Run(graphics.Options{
		Width:      prefs.WindowWidth,
		Height:     prefs.WindowHeight,
		Title:      prefs.WindowTitle,
		Background: bg,
		TargetFPS:  prefs.TargetFPS,
		Cleanup:    scn.Unload,
	}, v.Update, draw, v.Resize)
}
