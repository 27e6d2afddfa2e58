// Package config loads crewsheet configuration: scalar values, colors, prompt templates and secrets.
// Every file falls back through local (.crewsheet in the working dir) → global (~/.config/crewsheet) → embedded defaults.
package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/umputun/crewsheet/pkg/notify"
)

//go:embed defaults/config defaults/prompts/*.txt
var defaultsFS embed.FS

// ErrConfiguration marks fatal configuration problems: an unresolvable model, a missing secret,
// an invalid cell value or a duplicated identifier. Such errors abort the run before any LLM call.
var ErrConfiguration = errors.New("configuration error")

// localDirName is the project-local config directory looked up in the working directory.
const localDirName = ".crewsheet"

// Config is the fully merged application configuration.
type Config struct {
	SheetAgents string // name of the agents table
	SheetTasks  string // name of the tasks table
	SheetCrew   string // name of the crew table
	SheetModels string // name of the models table

	DefaultModel       string  // model used when an agent row has no Model Name column
	DefaultTemperature float64 // temperature used when an agent row has no Temperature
	DefaultMaxIter     int     // iteration cap used when an agent row has no Max_iter
	ManagerModel       string  // model for the hierarchical manager, empty uses the first agent's model

	OpenAIBaseURL     string // public OpenAI endpoint
	AzureAPIVersion   string // api-version query parameter for azure deployments
	RequestTimeoutMs  int    // per-request HTTP timeout for LLM calls
	RequestsPerMinute int    // per-model request pacing, 0 disables
	MemoryRecall      int    // number of memories recalled per task
	ResultMinWidth    int    // minimum width of the result table
	EnvFile           string // optional dotenv-style file with secrets
	ToolsRoot         string // root directory for file tools

	Notify  notify.Params
	Colors  ColorConfig
	Prompts Prompts

	configDir string
	localDir  string
}

// ColorConfig holds "r,g,b" color values for console output.
type ColorConfig struct {
	Agent     string
	Task      string
	Crew      string
	Run       string
	Warn      string
	Error     string
	Timestamp string
	Info      string
}

// DefaultsFS returns the embedded defaults filesystem.
func DefaultsFS() embed.FS {
	return defaultsFS
}

// DefaultConfigDir returns the global config directory, ~/.config/crewsheet.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "crewsheet")
	}
	return filepath.Join(home, ".config", "crewsheet")
}

// Load loads configuration from configDir (empty uses DefaultConfigDir) and from .crewsheet in the
// working directory if it exists. Missing global defaults are installed on the first run.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	localDir := ""
	if info, err := os.Stat(localDirName); err == nil && info.IsDir() {
		localDir = localDirName
	}

	return loadWithLocal(configDir, localDir)
}

// loadWithLocal loads config with an explicit local directory, empty localDir skips local lookup.
func loadWithLocal(globalDir, localDir string) (*Config, error) {
	if err := newDefaultsInstaller(defaultsFS).Install(globalDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalConfig := filepath.Join(globalDir, "config")
	localConfig := ""
	localPrompts := ""
	if localDir != "" {
		localConfig = filepath.Join(localDir, "config")
		localPrompts = filepath.Join(localDir, "prompts")
	}

	values, err := newValuesLoader(defaultsFS).Load(localConfig, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := newColorLoader(defaultsFS).Load(localConfig, globalConfig)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	prompts, err := newPromptLoader(defaultsFS).Load(localPrompts, filepath.Join(globalDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	return &Config{
		SheetAgents:        values.SheetAgents,
		SheetTasks:         values.SheetTasks,
		SheetCrew:          values.SheetCrew,
		SheetModels:        values.SheetModels,
		DefaultModel:       values.DefaultModel,
		DefaultTemperature: values.DefaultTemperature,
		DefaultMaxIter:     values.DefaultMaxIter,
		ManagerModel:       values.ManagerModel,
		OpenAIBaseURL:      values.OpenAIBaseURL,
		AzureAPIVersion:    values.AzureAPIVersion,
		RequestTimeoutMs:   values.RequestTimeoutMs,
		RequestsPerMinute:  values.RequestsPerMinute,
		MemoryRecall:       values.MemoryRecall,
		ResultMinWidth:     values.ResultMinWidth,
		EnvFile:            values.EnvFile,
		ToolsRoot:          values.ToolsRoot,
		Notify:             values.notifyParams(),
		Colors:             colors,
		Prompts:            prompts,
		configDir:          globalDir,
		localDir:           localDir,
	}, nil
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// LocalDir returns the project-local config directory, empty if none was found.
func (c *Config) LocalDir() string {
	return c.localDir
}
