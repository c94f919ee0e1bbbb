package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_InvalidOptions(t *testing.T) {
	assert.Error(t, Init(LogOption{Level: "loud"}))
	assert.Error(t, Init(LogOption{Format: "xml"}))
}

func TestInit_WritesToLogDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(LogOption{Format: "json", LogDir: dir, Level: "debug"}))
	t.Cleanup(func() { _ = Init(LogOption{}) })

	Infof("[test] hello %s", "world")
	Sync()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[test] hello world")
}
