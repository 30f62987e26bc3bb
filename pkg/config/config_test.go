package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgraph/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kektorgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"all", "photometry"}, cfg.PresetNames())

	p, err := cfg.Preset("all")
	require.NoError(t, err)
	assert.Empty(t, p.Attributes)
	assert.Equal(t, "alert", p.VertexLabel)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Defaults, cfg.Defaults)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
labels:
  vertex_names:
    candidate: candid
presets:
  position:
    vertex_label: alert
    relation_label: near
    value_attribute: separation
    value: reciprocal
    attributes: [ra, dec]
    metric: linear
    min_fraction: 0.5
    max_fraction: 1
defaults:
  preset: position
  rank_count: 3
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "candid", cfg.Labels.VertexNames["candidate"])
	assert.Equal(t, "objectId", cfg.Labels.VertexNames["source"], "defaults survive a partial override")
	assert.Equal(t, []string{"all", "photometry", "position"}, cfg.PresetNames())
	assert.Equal(t, "position", cfg.Defaults.Preset)
	assert.Equal(t, 3, cfg.Defaults.RankCount)
	assert.Equal(t, 5, cfg.Defaults.ClusterCount)

	p, err := cfg.Preset("position")
	require.NoError(t, err)
	assert.Equal(t, []string{"ra", "dec"}, p.Attributes)
	assert.Equal(t, ValueReciprocal, p.Value)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "defaults:\n  rank_cont: 3\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"fraction": `
presets:
  bad:
    relation_label: d
    value_attribute: v
    metric: linear
    max_fraction: 1.5
`,
		"metric": `
presets:
  bad:
    relation_label: d
    value_attribute: v
    metric: cosine
`,
		"default preset": "defaults:\n  preset: nope\n",
		"cluster count":  "defaults:\n  cluster_count: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration), err.Error())
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestUnknownPreset(t *testing.T) {
	_, err := DefaultConfig().Preset("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Contains(t, errors.FlattenHints(err), "all, photometry")
}
