package primitives

import (
	_ "embed"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

var fallbackDef = mustParse(fallbackYAML)

// Fallback returns the stand-in shape shown when the model fails to load.
func Fallback() Def {
	return fallbackDef
}

// Parse decodes a single primitive definition. Type and a positive size on every axis are required.
func Parse(data []byte) (Def, error) {
	var d Def
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Def{}, fmt.Errorf("primitives: %w", err)
	}
	if d.Type == "" {
		return Def{}, fmt.Errorf("primitives: missing type")
	}
	for i, s := range d.Size {
		if s <= 0 {
			return Def{}, fmt.Errorf("primitives: size[%d] must be positive, got %v", i, s)
		}
	}
	return d, nil
}

func mustParse(data []byte) Def {
	d, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA" (leading # optional). Alpha defaults to 255.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("primitives: bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("primitives: bad color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
