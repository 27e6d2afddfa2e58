package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// secret names
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvAzureKey  = "AZURE_OPENAI_KEY"
	EnvSerperKey = "SERPER_API_KEY"
)

// Secrets holds API keys. Values are looked up in the process environment first,
// then in the env file; nothing is ever written back to the environment.
type Secrets struct {
	OpenAIKey string
	AzureKey  string
	SerperKey string
}

// LoadSecrets reads secrets from the environment and the optional dotenv-style envFile.
// a missing envFile is not an error.
func LoadSecrets(envFile string) (Secrets, error) {
	fileVals, err := readEnvFile(envFile)
	if err != nil {
		return Secrets{}, err
	}

	lookup := func(name string) string {
		if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fileVals[name]
	}

	return Secrets{
		OpenAIKey: lookup(EnvOpenAIKey),
		AzureKey:  lookup(EnvAzureKey),
		SerperKey: lookup(EnvSerperKey),
	}, nil
}

// Require checks that the named secrets are set, reporting all missing ones at once.
func (s Secrets) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if s.value(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: environment variable(s) %s not set, export them or add them to the env file",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (s Secrets) value(name string) string {
	switch name {
	case EnvOpenAIKey:
		return s.OpenAIKey
	case EnvAzureKey:
		return s.AzureKey
	case EnvSerperKey:
		return s.SerperKey
	default:
		return os.Getenv(name)
	}
}

// readEnvFile parses KEY=VALUE lines; "export " prefixes and surrounding quotes are accepted.
func readEnvFile(path string) (map[string]string, error) {
	res := map[string]string{}
	if path == "" {
		return res, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from user config
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	var lines []string
	for line := range strings.SplitSeq(content, "\n") {
		lines = append(lines, strings.TrimPrefix(strings.TrimSpace(line), "export "))
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true, UnescapeValueDoubleQuotes: true},
		[]byte(strings.Join(lines, "\n")))
	if err != nil {
		return nil, fmt.Errorf("parse env file %s: %w", path, err)
	}

	for _, key := range cfg.Section("").Keys() {
		val := strings.TrimSpace(key.String())
		val = strings.Trim(val, `'`)
		res[key.Name()] = val
	}
	return res, nil
}
