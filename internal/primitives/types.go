package primitives

// Def is the YAML definition of a stand-in primitive (e.g. fallback.yaml).
// Size is the full extent along X, Y and Z; Position is where the primitive's center goes.
type Def struct {
	Type     string     `yaml:"type"`
	Size     [3]float32 `yaml:"size,omitempty"`
	Position [3]float32 `yaml:"position,omitempty"`
	Color    string     `yaml:"color,omitempty"`
}
