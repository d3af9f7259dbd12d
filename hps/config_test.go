package hps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, "Logbot-HPS", c.Name)
	assert.Equal(t, 60, c.Timeout)
	assert.Equal(t, 0, c.MTU)
}

func TestLoadConfigFileEmptyPath(t *testing.T) {
	c, err := LoadConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: Custom-HPS\ntimeout: 15\nmtu: 64\n"), 0o644))

	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Custom-HPS", c.Name)
	assert.Equal(t, 15, c.Timeout)
	assert.Equal(t, 64, c.MTU)
}

func TestLoadConfigFileMissingFile(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRequestTimeout(t *testing.T) {
	c := Config{Timeout: 5}
	assert.Equal(t, 5_000_000_000, int(c.RequestTimeout()))
}

func TestEffectiveChunkSizeNoOverride(t *testing.T) {
	c := Config{MTU: 0}
	assert.Equal(t, uint32(23-MTUOverhead), c.EffectiveChunkSize(23))
	assert.Equal(t, uint32(185), c.EffectiveChunkSize(188))
}

func TestEffectiveChunkSizeOverrideWinsWhenSmaller(t *testing.T) {
	c := Config{MTU: 40}
	assert.Equal(t, uint32(40), c.EffectiveChunkSize(188))
}

func TestEffectiveChunkSizeOverrideIgnoredWhenLarger(t *testing.T) {
	c := Config{MTU: 500}
	assert.Equal(t, uint32(185), c.EffectiveChunkSize(188))
}

func TestEffectiveChunkSizeFloorsAtMinimum(t *testing.T) {
	c := Config{MTU: 0}
	assert.Equal(t, uint32(MinChunkSize), c.EffectiveChunkSize(MTUOverhead+1))
}
