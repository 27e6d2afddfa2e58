package config

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Prompts holds the prompt templates used by the execution engine.
// Each one can be replaced by a .txt file with the same name in the prompts directory.
type Prompts struct {
	Agent   string // system prompt, {{ROLE}} {{GOAL}} {{BACKSTORY}}
	Task    string // task prompt, {{DESCRIPTION}} {{EXPECTED_OUTPUT}} {{CONTEXT}} {{MEMORY}}
	Manager string // hierarchical manager goal/backstory, {{COWORKERS}}
	Final   string // forced final answer request, {{EXPECTED_OUTPUT}}
}

// promptFile describes one template and the placeholder it can't work without.
type promptFile struct {
	name     string
	required string
	field    func(p *Prompts) *string
}

var promptFiles = []promptFile{
	{name: "agent.txt", required: "{{ROLE}}", field: func(p *Prompts) *string { return &p.Agent }},
	{name: "task.txt", required: "{{DESCRIPTION}}", field: func(p *Prompts) *string { return &p.Task }},
	{name: "manager.txt", required: "{{COWORKERS}}", field: func(p *Prompts) *string { return &p.Manager }},
	{name: "final.txt", field: func(p *Prompts) *string { return &p.Final }},
}

// promptLoader loads prompt templates with embedded filesystem fallback.
type promptLoader struct {
	embedFS embed.FS
}

func newPromptLoader(embedFS embed.FS) *promptLoader {
	return &promptLoader{embedFS: embedFS}
}

// Load picks every template from the first of local, global and embedded that has non-comment content.
// An empty localDir skips the local lookup.
func (p *promptLoader) Load(localDir, globalDir string) (Prompts, error) {
	var prompts Prompts
	for _, pf := range promptFiles {
		content, err := p.find(pf.name, localDir, globalDir)
		if err != nil {
			return Prompts{}, fmt.Errorf("load %s prompt: %w", strings.TrimSuffix(pf.name, ".txt"), err)
		}
		if pf.required != "" && !strings.Contains(content, pf.required) {
			return Prompts{}, fmt.Errorf("%w: %s prompt has no %s placeholder", ErrConfiguration, pf.name, pf.required)
		}
		*pf.field(&prompts) = content
	}
	return prompts, nil
}

func (p *promptLoader) find(name string, dirs ...string) (string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // path is constructed internally
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read prompt file: %w", err)
		}
		if content := strings.TrimSpace(stripComments(string(data))); content != "" {
			return content, nil
		}
	}

	data, err := p.embedFS.ReadFile(path.Join("defaults", "prompts", name))
	if err != nil {
		return "", fmt.Errorf("read embedded prompt: %w", err)
	}
	return strings.TrimSpace(stripComments(string(data))), nil
}

// stripComments drops lines starting with #, CRLF line endings are normalized first.
func stripComments(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var b strings.Builder
	for line := range strings.Lines(content) {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
