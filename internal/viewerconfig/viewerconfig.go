package viewerconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/jinzhu/copier"

	"model-viewer/internal/logger"
)

// DefaultPath is the viewer config file, relative to the process working directory.
const DefaultPath = "config/viewer.json"

// Environment variables that override the file (usually set from .env).
const (
	EnvAsset       = "VIEWER_ASSET"
	EnvDesiredSize = "VIEWER_DESIRED_SIZE"
)

// Prefs holds viewer preferences. Every field has a default so the file is optional.
type Prefs struct {
	Asset        string  `json:"asset,omitempty"`      // file under AssetRoot, or an http(s) URL
	AssetRoot    string  `json:"asset_root,omitempty"` // directory local assets are read from
	DesiredSize  float32 `json:"desired_size,omitempty"`
	Fovy         float32 `json:"fovy,omitempty"`
	WindowWidth  int     `json:"window_width,omitempty"`
	WindowHeight int     `json:"window_height,omitempty"`
	WindowTitle  string  `json:"window_title,omitempty"`
	ClearColor   string  `json:"clear_color,omitempty"`
	TargetFPS    int     `json:"target_fps,omitempty"`
	ShowFPS      bool    `json:"show_fps"`
	ShowMemAlloc bool    `json:"show_memalloc"`
	ShowGrid     bool    `json:"show_grid"`
	LogPath      string  `json:"log_path,omitempty"`
}

// Default returns the built-in preferences: bed.glb from ./assets, 3 units wide, sepia background.
func Default() Prefs {
	return Prefs{
		Asset:        "bed.glb",
		AssetRoot:    "assets",
		DesiredSize:  3,
		Fovy:         55,
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "model viewer",
		ClearColor:   "#6B4F2C",
		TargetFPS:    60,
		LogPath:      logger.DefaultPath,
	}
}

// Load reads preferences from path. A missing file yields Default() with no error. Fields
// absent or zero in the file keep their defaults. An unreadable or invalid file yields
// Default() and the error, so callers can log it and carry on.
func Load(path string) (Prefs, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("viewerconfig: %w", err)
	}
	var file Prefs
	if err := json.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("viewerconfig: %s: %w", path, err)
	}
	if err := copier.CopyWithOption(&p, &file, copier.Option{IgnoreEmpty: true}); err != nil {
		return Default(), fmt.Errorf("viewerconfig: %w", err)
	}
	return p, nil
}

// ApplyEnv overrides p with the VIEWER_* environment variables that are set.
func ApplyEnv(p Prefs) (Prefs, error) {
	if v := os.Getenv(EnvAsset); v != "" {
		p.Asset = v
	}
	if v := os.Getenv(EnvDesiredSize); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || !(f > 0) || math.IsInf(f, 0) {
			return p, fmt.Errorf("viewerconfig: %s=%q is not a positive finite number", EnvDesiredSize, v)
		}
		p.DesiredSize = float32(f)
	}
	return p, nil
}
