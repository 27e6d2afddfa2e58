package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptLoader_Load_GlobalOverridesEmbedded(t *testing.T) {
	globalDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "final.txt"),
		[]byte("# custom\r\nWrap up now: {{EXPECTED_OUTPUT}}\r\n"), 0o600))

	prompts, err := newPromptLoader(defaultsFS).Load("", globalDir)
	require.NoError(t, err)

	assert.Equal(t, "Wrap up now: {{EXPECTED_OUTPUT}}", prompts.Final)
	assert.Contains(t, prompts.Agent, "You are {{ROLE}}.")
}

func TestPromptLoader_Load_CommentedFileFallsBack(t *testing.T) {
	globalDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "task.txt"), []byte("# Current task: {{DESCRIPTION}}\n"), 0o600))

	prompts, err := newPromptLoader(defaultsFS).Load("", globalDir)
	require.NoError(t, err)
	assert.Contains(t, prompts.Task, "Current task: {{DESCRIPTION}}")
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "a\nb", stripComments("# x\na\n  # y\nb"))
	assert.Equal(t, "a\n", stripComments("a\r\n# c\r\n"))
}

func TestPromptLoader_Load_LocalWins(t *testing.T) {
	localDir, globalDir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "agent.txt"), []byte("Local {{ROLE}}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "agent.txt"), []byte("Global {{ROLE}}"), 0o600))

	prompts, err := newPromptLoader(defaultsFS).Load(localDir, globalDir)
	require.NoError(t, err)
	assert.Equal(t, "Local {{ROLE}}", prompts.Agent)
}

func TestPromptLoader_Load_MissingPlaceholder(t *testing.T) {
	globalDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "manager.txt"), []byte("You manage a team."), 0o600))

	_, err := newPromptLoader(defaultsFS).Load("", globalDir)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "manager.txt prompt has no {{COWORKERS}} placeholder")
}
