package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// defaultsInstaller writes embedded defaults into the global config directory.
type defaultsInstaller struct {
	embedFS embed.FS
}

func newDefaultsInstaller(embedFS embed.FS) *defaultsInstaller {
	return &defaultsInstaller{embedFS: embedFS}
}

// Install creates the config directory with a commented config file and prompt templates.
// an existing config file is never touched; prompts are installed only into a prompts dir
// without .txt files, so users can own the full set.
func (d *defaultsInstaller) Install(configDir string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	promptsDir := filepath.Join(configDir, "prompts")
	if err := os.MkdirAll(promptsDir, 0o700); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config")
	_, statErr := os.Stat(configPath)
	if statErr != nil && !os.IsNotExist(statErr) {
		return fmt.Errorf("check config file: %w", statErr)
	}
	if os.IsNotExist(statErr) {
		data, err := d.embedFS.ReadFile("defaults/config")
		if err != nil {
			return fmt.Errorf("read embedded config: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(commentOut(string(data))), 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
	}

	if err := d.installPrompts(promptsDir); err != nil {
		return fmt.Errorf("install default prompts: %w", err)
	}
	return nil
}

// installPrompts copies embedded prompt templates unless the directory already has .txt files.
func (d *defaultsInstaller) installPrompts(destDir string) error {
	existing, err := os.ReadDir(destDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read prompts dir: %w", err)
	}
	for _, entry := range existing {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".txt") {
			return nil
		}
	}

	entries, err := d.embedFS.ReadDir("defaults/prompts")
	if err != nil {
		return fmt.Errorf("read embedded prompts dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := d.embedFS.ReadFile("defaults/prompts/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read embedded prompt %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(destDir, entry.Name()), []byte(commentOut(string(data))), 0o600); err != nil {
			return fmt.Errorf("write prompt file %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// commentOut prefixes every non-comment line with "# ", so installed files act as templates
// and embedded defaults keep applying until a user uncomments a line.
func commentOut(content string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = "# " + line
	}
	return strings.Join(lines, "\n") + "\n"
}
