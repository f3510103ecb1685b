package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runClearWithInput executes the clear command with the given stdin.
func runClearWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"clear"}, args...))

	err := cmd.Execute()
	return buf.String(), err
}

func TestClearCmd_PromptRefused(t *testing.T) {
	// When: answering the confirmation prompt with "n"
	out, err := runClearWithInput(t, "n\n")

	// Then: nothing is deleted
	require.NoError(t, err)
	assert.Contains(t, out, `Delete collection "vault" and all its points? [y/N]: `)
	assert.Contains(t, out, "Aborted.")
	assert.NotContains(t, out, "Deleted collection")
}

func TestClearCmd_PromptDefaultsToNo(t *testing.T) {
	// When: the prompt gets no answer at all
	out, err := runClearWithInput(t, "")

	// Then: the default is to abort
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
}

func TestClearCmd_PromptNamesCollection(t *testing.T) {
	// When: clearing a non-default collection
	out, err := runClearWithInput(t, "n\n", "--collection", "notes")

	// Then: the prompt names the collection the flag selected
	require.NoError(t, err)
	assert.Contains(t, out, `Delete collection "notes" and all its points? [y/N]: `)
}

func TestClearCmd_HasYesFlag(t *testing.T) {
	// Given: a clear command
	cmd := newClearCmd()

	// Then: it should offer --yes to skip the prompt
	flag := cmd.Flags().Lookup("yes")
	require.NotNil(t, flag, "Should have --yes flag")
	assert.Equal(t, "false", flag.DefValue)
}
