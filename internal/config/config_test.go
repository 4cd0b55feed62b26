package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultData, c.DataPath)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 25, c.KMeansRestarts)
	assert.Equal(t, 1.0, c.CooksThreshold)
	assert.Equal(t, 10, c.TopN)
	assert.True(t, c.RenderPlots)
	assert.Equal(t, "plots", c.PlotsDir)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\ntop_n: 5\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 5, c.TopN)

	t.Setenv("TBBURDEN_SEED", "99")
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), c.Seed, "env overrides file")
	assert.Equal(t, 5, c.TopN)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 25, c.KMeansRestarts)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("seed: [unclosed\n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("top_n: 0\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "top_n")
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("kmeans_restarts", "10"))
	require.NoError(t, c.Set("render_plots", "false"))
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".tbburden", "config.yaml"))
	require.NoError(t, err)
	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, again.KMeansRestarts)
	assert.False(t, again.RenderPlots)
}

func TestSetRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	tests := []struct{ key, val string }{
		{"nope", "1"},
		{"seed", "abc"},
		{"top_n", "0"},
		{"cooks_threshold", "-1"},
		{"log_format", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			before := *c
			assert.Error(t, c.Set(tt.key, tt.val))
			assert.Equal(t, before, *c, "failed Set must not modify config")
		})
	}
	assert.Contains(t, Keys(), "cooks_threshold")
}
