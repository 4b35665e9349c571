package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_VaultPathSources(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
	}{
		{name: "long flag", args: []string{"--vault", "/tmp/vault"}},
		{name: "short flag", args: []string{"-v", "/tmp/vault"}},
		{name: "positional", args: []string{"/tmp/vault"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			config, shouldExit, err := Parse(tc.args, out)
			require.NoError(t, err)
			require.False(t, shouldExit)
			assert.Equal(t, "/tmp/vault", config.VaultPath)
		})
	}
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_RecallAndForce(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	config, _, err := Parse([]string{"--recall", "books/dune.md", "--force", "/tmp/vault"}, out)
	require.NoError(t, err)
	assert.Equal(t, "books/dune.md", config.RecallPath)
	assert.True(t, config.Force)
}

func TestParse_InvalidOptions(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    []string
		message string
	}{
		{
			name:    "bad log format",
			args:    []string{"--log-format", "xml", "/tmp/vault"},
			message: "invalid log-format",
		},
		{
			name:    "bad log level",
			args:    []string{"--log-level", "loud", "/tmp/vault"},
			message: "invalid log-level",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			_, _, err := Parse(tc.args, out)
			require.Error(t, err)

			exitErr, ok := err.(*ExitError)
			require.True(t, ok, "expected an *ExitError")
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.message)
		})
	}
}
