package peg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRunConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	contents := "grammar: grammar.peg\ninput: input.txt\nrule: Start\ntimeout_ms: 500\ntrace: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "grammar.peg", cfg.Grammar)
	assert.Equal(t, "input.txt", cfg.Input)
	assert.Equal(t, "Start", cfg.Rule)
	assert.Equal(t, 500, cfg.TimeoutMS)
	assert.True(t, cfg.Trace)
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
