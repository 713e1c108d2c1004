package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	t.Setenv("SEMINDEX_HOME", t.TempDir())

	out, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "semindex")
	for _, sub := range []string{"index", "search", "watch", "projects", "status", "stats", "serve", "config", "version", "logs"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	t.Setenv("SEMINDEX_HOME", t.TempDir())

	_, err := execute(t, "frobnicate")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("SEMINDEX_HOME", t.TempDir())

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "semindex")

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
}

func TestVersionFlag(t *testing.T) {
	t.Setenv("SEMINDEX_HOME", t.TempDir())

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "semindex version")
}
