package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_defaultsFS(t *testing.T) {
	data, err := defaultsFS.ReadFile("defaults/config")
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_model")
	assert.Contains(t, string(data), "sheet_agents")
	assert.Contains(t, string(data), "openai_base_url")
}

func Test_defaultsFS_PromptFiles(t *testing.T) {
	testCases := []struct {
		file     string
		contains []string
	}{
		{file: "defaults/prompts/agent.txt", contains: []string{"{{ROLE}}", "{{GOAL}}", "{{BACKSTORY}}"}},
		{file: "defaults/prompts/task.txt", contains: []string{"{{DESCRIPTION}}", "{{EXPECTED_OUTPUT}}", "{{CONTEXT}}", "{{MEMORY}}"}},
		{file: "defaults/prompts/manager.txt", contains: []string{"{{COWORKERS}}"}},
		{file: "defaults/prompts/final.txt", contains: []string{"{{EXPECTED_OUTPUT}}"}},
	}

	for _, tc := range testCases {
		t.Run(tc.file, func(t *testing.T) {
			data, err := defaultsFS.ReadFile(tc.file)
			require.NoError(t, err)
			for _, expected := range tc.contains {
				assert.Contains(t, string(data), expected)
			}
		})
	}
}

func TestLoad_WithCustomDir(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "custom-config")

	cfg, err := Load(configDir)
	require.NoError(t, err)

	assert.Equal(t, configDir, cfg.ConfigDir())
	assert.FileExists(t, filepath.Join(configDir, "config"))
	assert.FileExists(t, filepath.Join(configDir, "prompts", "agent.txt"))
}

func TestLoad_PopulatesAllFields(t *testing.T) {
	cfg, err := loadWithLocal(filepath.Join(t.TempDir(), "crewsheet"), "")
	require.NoError(t, err)

	assert.Equal(t, "Agents", cfg.SheetAgents)
	assert.Equal(t, "Tasks", cfg.SheetTasks)
	assert.Equal(t, "Crew", cfg.SheetCrew)
	assert.Equal(t, "Models", cfg.SheetModels)
	assert.Equal(t, "gpt-4-turbo-preview", cfg.DefaultModel)
	assert.InDelta(t, 0.7, cfg.DefaultTemperature, 0.0001)
	assert.Equal(t, 15, cfg.DefaultMaxIter)
	assert.Empty(t, cfg.ManagerModel)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "2024-02-01", cfg.AzureAPIVersion)
	assert.Equal(t, 600000, cfg.RequestTimeoutMs)
	assert.Equal(t, 0, cfg.RequestsPerMinute)
	assert.Equal(t, 3, cfg.MemoryRecall)
	assert.Equal(t, 120, cfg.ResultMinWidth)
	assert.Equal(t, ".env", cfg.EnvFile)
	assert.Equal(t, ".", cfg.ToolsRoot)
	assert.Empty(t, cfg.Notify.Channels)
	assert.True(t, cfg.Notify.OnError)
	assert.True(t, cfg.Notify.OnComplete)
	assert.Equal(t, 10000, cfg.Notify.TimeoutMs)

	assert.Contains(t, cfg.Prompts.Agent, "{{ROLE}}")
	assert.Contains(t, cfg.Prompts.Task, "{{DESCRIPTION}}")
	assert.Contains(t, cfg.Prompts.Manager, "{{COWORKERS}}")
	assert.Contains(t, cfg.Prompts.Final, "{{EXPECTED_OUTPUT}}")
	assert.NotContains(t, cfg.Prompts.Agent, "placeholders:", "comment lines stripped")

	assert.Equal(t, "0,255,255", cfg.Colors.Agent)
	assert.Equal(t, "0,255,0", cfg.Colors.Task)
}

func TestLoad_InstalledConfigIsCommentedTemplate(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "crewsheet")
	_, err := loadWithLocal(configDir, "")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(configDir, "config"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# default_model = gpt-4-turbo-preview")
	assert.Empty(t, stripCommentsAndSpace(string(data)), "every line of the installed config is a comment")
}

func TestLoad_WithUserConfig(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "crewsheet")
	require.NoError(t, os.MkdirAll(configDir, 0o700))

	userConfig := `
default_model = llama3
default_temperature = 0
requests_per_minute = 30
notify_channels = webhook, slack
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte(userConfig), 0o600))

	cfg, err := loadWithLocal(configDir, "")
	require.NoError(t, err)

	assert.Equal(t, "llama3", cfg.DefaultModel)
	assert.InDelta(t, 0.0, cfg.DefaultTemperature, 0.0001, "explicit zero overrides embedded 0.7")
	assert.Equal(t, 30, cfg.RequestsPerMinute)
	assert.Equal(t, []string{"webhook", "slack"}, cfg.Notify.Channels)
	assert.Equal(t, 15, cfg.DefaultMaxIter, "unset values come from embedded defaults")
}

func TestLocalConfig_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalDir := filepath.Join(tmpDir, "global")
	localDir := filepath.Join(tmpDir, ".crewsheet")
	require.NoError(t, os.MkdirAll(globalDir, 0o700))
	require.NoError(t, os.MkdirAll(filepath.Join(localDir, "prompts"), 0o700))

	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config"),
		[]byte("default_model = global-model\nsheet_agents = GlobalAgents\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "config"),
		[]byte("default_model = local-model\ncolor_task = #ff0000\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(localDir, "prompts", "agent.txt"),
		[]byte("# local agent prompt\nAct as {{ROLE}}\n"), 0o600))

	cfg, err := loadWithLocal(globalDir, localDir)
	require.NoError(t, err)

	assert.Equal(t, localDir, cfg.LocalDir())
	assert.Equal(t, "local-model", cfg.DefaultModel)
	assert.Equal(t, "GlobalAgents", cfg.SheetAgents)
	assert.Equal(t, "255,0,0", cfg.Colors.Task)
	assert.Equal(t, "Act as {{ROLE}}", cfg.Prompts.Agent)
	assert.Contains(t, cfg.Prompts.Task, "{{DESCRIPTION}}", "other prompts fall back to embedded")
}

func TestLoad_InvalidConfig(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "crewsheet")
	require.NoError(t, os.MkdirAll(configDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte("default_max_iter = many\n"), 0o600))

	_, err := loadWithLocal(configDir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_max_iter")
}

func TestDefaultConfigDir(t *testing.T) {
	dir := DefaultConfigDir()
	assert.Contains(t, dir, "crewsheet")
}

func stripCommentsAndSpace(s string) string {
	out := ""
	for _, r := range stripComments(s) {
		if r != '\n' && r != ' ' && r != '\t' {
			out += string(r)
		}
	}
	return out
}
