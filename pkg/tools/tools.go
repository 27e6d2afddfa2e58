// Package tools holds the tools agents can call, keyed by the identifiers used in the Tools column.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

//go:generate moq -out mocks/tool.go -pkg mocks -skip-ensure -fmt goimports . Tool

// Tool is a function an agent can call.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage // JSON schema of the arguments object
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Registry is an explicit mapping from tool identifier to tool.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry makes a registry keyed by each tool's name.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Options configure the built-in tools.
type Options struct {
	SerperKey  string       // api key for search_tool
	SerperURL  string       // search endpoint, empty uses the public Serper API
	Root       string       // directory the file tools are confined to
	HTTPClient *http.Client // client for web tools, nil uses a client with a 30s timeout
}

// Default returns the registry of built-in tools.
func Default(opts Options) *Registry {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return NewRegistry(
		NewSearchTool(opts.SerperKey, opts.SerperURL, client),
		NewScrapeTool(client),
		NewFileReadTool(opts.Root),
		NewDirectoryReadTool(opts.Root),
	)
}

// Register adds a tool under key, rejecting duplicates.
func (r *Registry) Register(key string, t Tool) error {
	if _, ok := r.tools[key]; ok {
		return fmt.Errorf("tool %q already registered", key)
	}
	r.tools[key] = t
	return nil
}

// Validate checks every key matches its tool name and every schema is a JSON object schema.
func (r *Registry) Validate() error {
	var errs []error
	for _, key := range r.Names() {
		t := r.tools[key]
		if t.Name() != key {
			errs = append(errs, fmt.Errorf("tool %q registered as %q", t.Name(), key))
			continue
		}
		var schema struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(t.Schema(), &schema); err != nil {
			errs = append(errs, fmt.Errorf("tool %q schema: %w", key, err))
			continue
		}
		if schema.Type != "object" {
			errs = append(errs, fmt.Errorf("tool %q schema type is %q, want object", key, schema.Type))
		}
	}
	return errors.Join(errs...)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered identifiers, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for k := range r.tools {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Filter splits a comma-separated tool list into known and unknown identifiers.
// Both keep first-seen order without duplicates; blanks are ignored.
func (r *Registry) Filter(list string) (known, unknown []string) {
	seen := map[string]bool{}
	for part := range strings.SplitSeq(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := r.tools[name]; ok {
			known = append(known, name)
			continue
		}
		unknown = append(unknown, name)
	}
	return known, unknown
}

// decodeArgs unmarshals tool arguments, treating empty input as an empty object.
func decodeArgs(args json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
