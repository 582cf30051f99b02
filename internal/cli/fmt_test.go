package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmtStdout(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewFmtCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`[{"value":2,"id":1}]`))
	cmd.SetArgs([]string{"-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"value\": 2\n  }\n]\n", buf.String())
}

func TestFmtWrite(t *testing.T) {
	path := writeFile(t, "records.json", `[{"value":2,"id":1}]`)

	buf := &bytes.Buffer{}
	cmd := NewFmtCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--write", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "formatted")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"value\": 2\n  }\n]", string(data))

	buf.Reset()
	cmd = NewFmtCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-w", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "unchanged")
}

func TestFmtRejectsInvalid(t *testing.T) {
	path := writeFile(t, "records.json", `[{"id":1}]`)

	cmd := NewFmtCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-w", path})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data), "file untouched")
}

func TestFmtWriteNeedsFile(t *testing.T) {
	cmd := NewFmtCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-w", "-"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeed(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewSeedCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"id\": 0,\n    \"value\": 75\n  },"))
}
