package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuesLoader_Load_EmbeddedOnly(t *testing.T) {
	values, err := newValuesLoader(defaultsFS).Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "gpt-4-turbo-preview", values.DefaultModel)
	assert.True(t, values.DefaultTemperatureSet)
	assert.True(t, values.RequestsPerMinuteSet)
	assert.Equal(t, 0, values.RequestsPerMinute)
	assert.Equal(t, "Models", values.SheetModels)
	assert.Nil(t, values.NotifyChannels)
	assert.Nil(t, values.NotifyWebhookURLs)
}

func TestValuesLoader_Load_LocalOverridesGlobal(t *testing.T) {
	tmpDir := t.TempDir()
	globalConfig := filepath.Join(tmpDir, "global-config")
	localConfig := filepath.Join(tmpDir, "local-config")

	require.NoError(t, os.WriteFile(globalConfig, []byte(`
default_model = global-model
memory_recall = 5
request_timeout_ms = 1000
`), 0o600))
	require.NoError(t, os.WriteFile(localConfig, []byte(`
default_model = local-model
notify_on_error = false
`), 0o600))

	values, err := newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, "local-model", values.DefaultModel)
	assert.Equal(t, 5, values.MemoryRecall)
	assert.Equal(t, 1000, values.RequestTimeoutMs)
	assert.False(t, values.NotifyOnError, "explicit false wins")
	assert.True(t, values.NotifyOnComplete)
}

func TestValuesLoader_Load_CommentedFileFallsBack(t *testing.T) {
	globalConfig := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(globalConfig, []byte("# default_model = other\n\n# memory_recall = 9\n"), 0o600))

	values, err := newValuesLoader(defaultsFS).Load("", globalConfig)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo-preview", values.DefaultModel)
	assert.Equal(t, 3, values.MemoryRecall)
}

func TestValuesLoader_Load_URLWithHashKept(t *testing.T) {
	globalConfig := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(globalConfig, []byte("openai_base_url = http://proxy.local/v1#frag\n"), 0o600))

	values, err := newValuesLoader(defaultsFS).Load("", globalConfig)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.local/v1#frag", values.OpenAIBaseURL)
}

func TestValuesLoader_Load_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		errPart string
	}{
		{name: "invalid default_max_iter", config: "default_max_iter = abc", errPart: "default_max_iter"},
		{name: "negative request_timeout_ms", config: "request_timeout_ms = -5", errPart: "request_timeout_ms"},
		{name: "invalid default_temperature", config: "default_temperature = warm", errPart: "default_temperature"},
		{name: "temperature out of range", config: "default_temperature = 3.5", errPart: "default_temperature"},
		{name: "invalid notify_on_error", config: "notify_on_error = maybe", errPart: "notify_on_error"},
		{name: "negative memory_recall", config: "memory_recall = -1", errPart: "memory_recall"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config")
			require.NoError(t, os.WriteFile(configPath, []byte(tc.config), 0o600))

			_, err := newValuesLoader(defaultsFS).Load("", configPath)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
}
