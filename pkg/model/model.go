// Package model resolves model names from the Models table into provider endpoints with credentials.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/umputun/crewsheet/pkg/config"
	"github.com/umputun/crewsheet/pkg/sheet"
)

// Provider is the backend category of a model.
type Provider string

// supported providers
const (
	OpenAI           Provider = "openai"
	AzureOpenAI      Provider = "azure-openai"
	OpenAICompatible Provider = "openai-compatible"
)

// Models table columns
const (
	ColModel       = "Model"
	ColContextSize = "Context size (local only)"
	ColProvider    = "Provider"
	ColBaseURL     = "base_url"
	ColDeployment  = "Deployment"
)

// NormalizeProvider maps a raw Provider cell to a Provider. An empty provider counts as openai
// only when no base_url is given, any unknown value is an OpenAI-compatible local server.
func NormalizeProvider(raw, baseURL string) Provider {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return OpenAI
	case "azure-openai", "azure", "azure_openai":
		return AzureOpenAI
	case "":
		if strings.TrimSpace(baseURL) == "" {
			return OpenAI
		}
	}
	return OpenAICompatible
}

// Entry is one row of the Models table. Absent optional cells are zero values.
type Entry struct {
	Name         string   `yaml:"name"`
	Provider     Provider `yaml:"provider"`
	BaseURL      string   `yaml:"base_url,omitempty"`
	DeploymentID string   `yaml:"deployment,omitempty"`
	ContextSize  int      `yaml:"context_size,omitempty"`
}

// Catalog is the set of models by trimmed name.
type Catalog struct {
	entries map[string]Entry
	names   []string
}

// NewCatalog builds a catalog from the Models table. An empty or nil table gives an empty catalog.
func NewCatalog(t *sheet.Table) (*Catalog, error) {
	c := &Catalog{entries: map[string]Entry{}}
	if t.Len() == 0 {
		return c, nil
	}
	if !t.HasColumn(ColModel) {
		return nil, fmt.Errorf("%w: table %s has no %q column", config.ErrConfiguration, t.Name, ColModel)
	}

	for _, row := range t.Rows {
		name := row.Get(ColModel)
		if name == "" {
			continue
		}
		if _, dup := c.entries[name]; dup {
			return nil, fmt.Errorf("%w: model %q is listed more than once in %s", config.ErrConfiguration, name, t.Name)
		}
		e, err := entryFromRow(name, row)
		if err != nil {
			return nil, err
		}
		c.entries[name] = e
		c.names = append(c.names, name)
	}
	return c, nil
}

func entryFromRow(name string, row sheet.Row) (Entry, error) {
	e := Entry{
		Name:         name,
		BaseURL:      row.Get(ColBaseURL),
		DeploymentID: row.Get(ColDeployment),
	}
	e.Provider = NormalizeProvider(row.Get(ColProvider), e.BaseURL)

	if v := row.Get(ColContextSize); v != "" {
		n, err := parseWhole(v)
		if err != nil || n < 1 {
			return Entry{}, fmt.Errorf("%w: model %q has invalid %q %q", config.ErrConfiguration, name, ColContextSize, v)
		}
		e.ContextSize = n
	}
	return e, nil
}

// parseWhole parses integer text, also accepting floats with a zero fraction such as "4096.0".
func parseWhole(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", v, err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%q is not a whole number", v)
	}
	return int(f), nil
}

// Resolve looks up a model by name; surrounding whitespace is ignored.
func (c *Catalog) Resolve(name string) (Entry, error) {
	name = strings.TrimSpace(name)
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: failed to resolve model %q, it is not in the Models table", config.ErrConfiguration, name)
	}
	return e, nil
}

// Names returns model names in table order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.names)
}
