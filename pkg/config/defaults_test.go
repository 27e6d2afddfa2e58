package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsInstaller_Install(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "crewsheet")

	require.NoError(t, newDefaultsInstaller(defaultsFS).Install(configDir))

	assert.FileExists(t, filepath.Join(configDir, "config"))
	for _, name := range []string{"agent.txt", "task.txt", "manager.txt", "final.txt"} {
		data, err := os.ReadFile(filepath.Join(configDir, "prompts", name))
		require.NoError(t, err)
		assert.Empty(t, stripCommentsAndSpace(string(data)), "%s installed fully commented", name)
	}
}

func TestDefaultsInstaller_KeepsExistingFiles(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "crewsheet")
	promptsDir := filepath.Join(configDir, "prompts")
	require.NoError(t, os.MkdirAll(promptsDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte("default_model = mine\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(promptsDir, "task.txt"), []byte("my task {{DESCRIPTION}}"), 0o600))

	require.NoError(t, newDefaultsInstaller(defaultsFS).Install(configDir))

	data, err := os.ReadFile(filepath.Join(configDir, "config"))
	require.NoError(t, err)
	assert.Equal(t, "default_model = mine\n", string(data))
	assert.NoFileExists(t, filepath.Join(promptsDir, "agent.txt"), "prompts dir with .txt files is left alone")
}

func TestCommentOut(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{name: "plain lines", in: "a = 1\nb = 2\n", want: "# a = 1\n# b = 2\n"},
		{name: "comments kept", in: "# note\na = 1", want: "# note\n# a = 1\n"},
		{name: "blank lines kept", in: "a\n\nb\n", want: "# a\n\n# b\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, commentOut(tc.in))
		})
	}
}
