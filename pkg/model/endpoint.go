package model

import (
	"fmt"
	"strings"

	"github.com/umputun/crewsheet/pkg/config"
)

// PlaceholderKey is the api key used for OpenAI-compatible local servers.
const PlaceholderKey = "NA"

// Endpoint is a model entry with everything needed to call it.
type Endpoint struct {
	Entry      `yaml:",inline"`
	APIKey     string `yaml:"-"`
	URL        string `yaml:"url"`                   // base URL requests go to
	Deployment string `yaml:"-"`                     // azure deployment id
	APIVersion string `yaml:"api_version,omitempty"` // azure api-version
}

// Settings are the resolver inputs coming from configuration.
type Settings struct {
	OpenAIBaseURL   string
	AzureAPIVersion string
}

// Resolver turns model names into endpoints. It never touches the process environment.
type Resolver struct {
	catalog  *Catalog
	secrets  config.Secrets
	settings Settings
}

// NewResolver makes a resolver over catalog using the given secrets.
func NewResolver(catalog *Catalog, secrets config.Secrets, settings Settings) *Resolver {
	if settings.OpenAIBaseURL == "" {
		settings.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	return &Resolver{catalog: catalog, secrets: secrets, settings: settings}
}

// Catalog returns the underlying catalog.
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Endpoint resolves a model name and its credentials.
func (r *Resolver) Endpoint(name string) (Endpoint, error) {
	e, err := r.catalog.Resolve(name)
	if err != nil {
		return Endpoint{}, err
	}
	return r.Credentials(e)
}

// Credentials applies the per-provider credential policy to an entry.
func (r *Resolver) Credentials(e Entry) (Endpoint, error) {
	ep := Endpoint{Entry: e}
	switch e.Provider {
	case OpenAI:
		if r.secrets.OpenAIKey == "" {
			return Endpoint{}, fmt.Errorf("%w: model %q needs %s", config.ErrConfiguration, e.Name, config.EnvOpenAIKey)
		}
		ep.APIKey = r.secrets.OpenAIKey
		ep.URL = r.settings.OpenAIBaseURL
	case AzureOpenAI:
		if e.DeploymentID == "" {
			return Endpoint{}, fmt.Errorf("%w: azure model %q has no Deployment", config.ErrConfiguration, e.Name)
		}
		if e.BaseURL == "" {
			return Endpoint{}, fmt.Errorf("%w: azure model %q has no base_url", config.ErrConfiguration, e.Name)
		}
		if r.secrets.AzureKey == "" {
			return Endpoint{}, fmt.Errorf("%w: azure model %q needs %s", config.ErrConfiguration, e.Name, config.EnvAzureKey)
		}
		ep.APIKey = r.secrets.AzureKey
		ep.URL = e.BaseURL
		ep.Deployment = e.DeploymentID
		ep.APIVersion = r.settings.AzureAPIVersion
	default:
		if e.BaseURL == "" {
			return Endpoint{}, fmt.Errorf("%w: model %q of provider %s has no base_url", config.ErrConfiguration, e.Name, e.Provider)
		}
		ep.APIKey = PlaceholderKey
		ep.URL = e.BaseURL
	}
	ep.URL = strings.TrimRight(ep.URL, "/")
	return ep, nil
}
