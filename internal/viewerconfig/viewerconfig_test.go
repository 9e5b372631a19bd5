package viewerconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset":"chair.glb","desired_size":2.5,"show_fps":true}`), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "chair.glb", p.Asset)
	assert.Equal(t, float32(2.5), p.DesiredSize)
	assert.True(t, p.ShowFPS)
	assert.Equal(t, "assets", p.AssetRoot)
	assert.Equal(t, float32(55), p.Fovy)
	assert.Equal(t, "#6B4F2C", p.ClearColor)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"asset":`), 0644))

	p, err := Load(path)
	assert.Error(t, err)
	assert.Equal(t, Default(), p)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAsset, "sofa.glb")
	t.Setenv(EnvDesiredSize, "4")
	p, err := ApplyEnv(Default())
	require.NoError(t, err)
	assert.Equal(t, "sofa.glb", p.Asset)
	assert.Equal(t, float32(4), p.DesiredSize)

	t.Setenv(EnvDesiredSize, "-1")
	p, err = ApplyEnv(Default())
	assert.Error(t, err)
	assert.Equal(t, float32(3), p.DesiredSize)
}

func TestApplyEnvRejectsNonFinite(t *testing.T) {
	for _, v := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "1e400", "0"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvDesiredSize, v)
			p, err := ApplyEnv(Default())
			assert.Error(t, err)
			assert.Equal(t, float32(3), p.DesiredSize)
		})
	}
}
