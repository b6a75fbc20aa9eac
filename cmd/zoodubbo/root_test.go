package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/534591395/zoodubbo/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLogLevelPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoodubbo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	t.Setenv(logging.EnvLogLevel, "")
	c, err := loadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)

	t.Setenv(logging.EnvLogLevel, "error")
	c, err = loadConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "error", c.Log.Level)

	c, err = loadConfig(path, "warn")
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)

	c, err = loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "error", c.Log.Level)
}
