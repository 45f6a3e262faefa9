package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepwise.log")
	log, err := New(Options{Mode: "prod", Level: "info", File: path})
	require.NoError(t, err)

	log.With("component", "test").Info("section completed", "section_id", "intro")
	log.Debug("hidden at info level")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "section completed")
	assert.Contains(t, string(data), `"section_id":"intro"`)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.NotContains(t, string(data), "hidden at info level")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored", "k", "v")
	log.Sync()
}
