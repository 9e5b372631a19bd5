package scene

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Lights is a hemisphere light (sky color from above, ground color from below, blended by
// the surface normal) plus a flat ambient term. Intensities are summed and the result
// clamped, so the pair never washes the model out to white.
type Lights struct {
	Sky              [3]float32
	Ground           [3]float32
	HemiIntensity    float32
	Ambient          [3]float32
	AmbientIntensity float32
}

// DefaultLights is a white sky over a dark grey ground with a soft white ambient fill.
func DefaultLights() Lights {
	return Lights{
		Sky:              [3]float32{1, 1, 1},
		Ground:           [3]float32{0.267, 0.267, 0.267},
		HemiIntensity:    1.2,
		Ambient:          [3]float32{1, 1, 1},
		AmbientIntensity: 0.7,
	}
}

// litScale maps the summed intensities into display range.
const litScale = float32(0.5)

// apply uploads the light uniforms (cgo-safe: local arrays).
func (l Lights) apply(shader rl.Shader) {
	sky := [3]float32{l.Sky[0], l.Sky[1], l.Sky[2]}
	ground := [3]float32{l.Ground[0], l.Ground[1], l.Ground[2]}
	amb := [3]float32{l.Ambient[0], l.Ambient[1], l.Ambient[2]}
	if loc := rl.GetShaderLocation(shader, "skyColor"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, sky[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "groundColor"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, ground[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "ambientColor"); loc >= 0 {
		rl.SetShaderValueV(shader, loc, amb[:], rl.ShaderUniformVec3, 1)
	}
	if loc := rl.GetShaderLocation(shader, "hemiIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{l.HemiIntensity * litScale}, rl.ShaderUniformFloat)
	}
	if loc := rl.GetShaderLocation(shader, "ambientIntensity"); loc >= 0 {
		rl.SetShaderValue(shader, loc, []float32{l.AmbientIntensity * litScale}, rl.ShaderUniformFloat)
	}
}

func loadLitShader() rl.Shader {
	return rl.LoadShaderFromMemory(litVS, litFS)
}

const (
	litVS = `#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
uniform mat4 mvp;
uniform mat4 matModel;
out vec2 fragTexCoord;
out vec3 fragNormal;
void main() {
  fragTexCoord = vertexTexCoord;
  fragNormal = normalize(mat3(matModel) * vertexNormal);
  gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`
	// texture0 is raylib's default diffuse sampler; untextured materials get a 1x1 white texture.
	litFS = `#version 330
in vec2 fragTexCoord;
in vec3 fragNormal;
uniform sampler2D texture0;
uniform vec4 colDiffuse;
uniform vec3 skyColor;
uniform vec3 groundColor;
uniform float hemiIntensity;
uniform vec3 ambientColor;
uniform float ambientIntensity;
out vec4 finalColor;
void main() {
  vec4 tint = texture(texture0, fragTexCoord) * colDiffuse;
  float up = 0.5 * normalize(fragNormal).y + 0.5;
  vec3 hemi = mix(groundColor, skyColor, up) * hemiIntensity;
  vec3 light = clamp(hemi + ambientColor * ambientIntensity, 0.0, 1.0);
  finalColor = vec4(tint.rgb * light, tint.a);
}
`
)
