package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/umputun/crewsheet/pkg/notify"
)

// Values holds scalar configuration values.
// Fields ending in *Set track whether the field was explicitly set, so a local config
// can override a global one with a zero value (e.g. default_temperature = 0).
type Values struct {
	SheetAgents string
	SheetTasks  string
	SheetCrew   string
	SheetModels string

	DefaultModel          string
	DefaultTemperature    float64
	DefaultTemperatureSet bool // tracks if default_temperature was explicitly set
	DefaultMaxIter        int
	ManagerModel          string

	OpenAIBaseURL        string
	AzureAPIVersion      string
	RequestTimeoutMs     int
	RequestsPerMinute    int
	RequestsPerMinuteSet bool // tracks if requests_per_minute was explicitly set
	MemoryRecall         int
	ResultMinWidth       int
	EnvFile              string
	ToolsRoot            string

	NotifyChannels      []string
	NotifyOnError       bool
	NotifyOnErrorSet    bool // tracks if notify_on_error was explicitly set
	NotifyOnComplete    bool
	NotifyOnCompleteSet bool // tracks if notify_on_complete was explicitly set
	NotifyTimeoutMs     int
	NotifyTelegramToken string
	NotifyTelegramChat  string
	NotifySlackToken    string
	NotifySlackChannel  string
	NotifyWebhookURLs   []string
	NotifyCustomScript  string
}

// valuesLoader loads Values with embedded filesystem fallback.
type valuesLoader struct {
	embedFS embed.FS
}

// newValuesLoader creates a new valuesLoader with the given embedded filesystem.
func newValuesLoader(embedFS embed.FS) *valuesLoader {
	return &valuesLoader{embedFS: embedFS}
}

// Load loads values from config files with fallback chain: local → global → embedded.
// localConfigPath and globalConfigPath are full paths to config files (not directories).
//
//nolint:dupl // intentional structural similarity with colorLoader.Load
func (vl *valuesLoader) Load(localConfigPath, globalConfigPath string) (Values, error) {
	embedded, err := vl.parseValuesFromEmbedded()
	if err != nil {
		return Values{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	global, err := vl.parseValuesFromFile(globalConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse global config: %w", err)
	}

	local, err := vl.parseValuesFromFile(localConfigPath)
	if err != nil {
		return Values{}, fmt.Errorf("parse local config: %w", err)
	}

	// merge: embedded → global → local (local wins)
	result := embedded
	result.mergeFrom(&global)
	result.mergeFrom(&local)

	return result, nil
}

// parseValuesFromFile reads a config file and parses it into Values.
// returns empty Values (not error) if the file doesn't exist or holds only comments.
func (vl *valuesLoader) parseValuesFromFile(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is constructed internally
	if err != nil {
		if os.IsNotExist(err) {
			return Values{}, nil
		}
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.TrimSpace(stripComments(string(data))) == "" {
		return Values{}, nil
	}

	return vl.parseValuesFromBytes(data)
}

// parseValuesFromEmbedded parses values from the embedded defaults/config file.
func (vl *valuesLoader) parseValuesFromEmbedded() (Values, error) {
	data, err := vl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	return vl.parseValuesFromBytes(data)
}

// parseValuesFromBytes parses configuration from a byte slice into Values.
func (vl *valuesLoader) parseValuesFromBytes(data []byte) (Values, error) {
	// ignoreInlineComment: true keeps # inside values (urls, hex colors)
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse config: %w", err)
	}

	var values Values
	section := cfg.Section("")

	strKeys := []struct {
		key   string
		field *string
	}{
		{"sheet_agents", &values.SheetAgents},
		{"sheet_tasks", &values.SheetTasks},
		{"sheet_crew", &values.SheetCrew},
		{"sheet_models", &values.SheetModels},
		{"default_model", &values.DefaultModel},
		{"manager_model", &values.ManagerModel},
		{"openai_base_url", &values.OpenAIBaseURL},
		{"azure_api_version", &values.AzureAPIVersion},
		{"env_file", &values.EnvFile},
		{"tools_root", &values.ToolsRoot},
		{"notify_telegram_token", &values.NotifyTelegramToken},
		{"notify_telegram_chat", &values.NotifyTelegramChat},
		{"notify_slack_token", &values.NotifySlackToken},
		{"notify_slack_channel", &values.NotifySlackChannel},
		{"notify_custom_script", &values.NotifyCustomScript},
	}
	for _, sk := range strKeys {
		if key, err := section.GetKey(sk.key); err == nil {
			*sk.field = strings.TrimSpace(key.String())
		}
	}

	// non-negative integers; zero means "not set" except where a *Set flag exists
	intKeys := []struct {
		key   string
		field *int
		set   *bool
	}{
		{"default_max_iter", &values.DefaultMaxIter, nil},
		{"request_timeout_ms", &values.RequestTimeoutMs, nil},
		{"requests_per_minute", &values.RequestsPerMinute, &values.RequestsPerMinuteSet},
		{"memory_recall", &values.MemoryRecall, nil},
		{"result_min_width", &values.ResultMinWidth, nil},
		{"notify_timeout_ms", &values.NotifyTimeoutMs, nil},
	}
	for _, ik := range intKeys {
		key, err := section.GetKey(ik.key)
		if err != nil {
			continue
		}
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", ik.key, intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid %s: must be non-negative, got %d", ik.key, val)
		}
		*ik.field = val
		if ik.set != nil {
			*ik.set = true
		}
	}

	if key, err := section.GetKey("default_temperature"); err == nil {
		val, floatErr := key.Float64()
		if floatErr != nil {
			return Values{}, fmt.Errorf("invalid default_temperature: %w", floatErr)
		}
		if val < 0 || val > 2 {
			return Values{}, fmt.Errorf("invalid default_temperature: must be within [0, 2], got %g", val)
		}
		values.DefaultTemperature = val
		values.DefaultTemperatureSet = true
	}

	boolKeys := []struct {
		key   string
		field *bool
		set   *bool
	}{
		{"notify_on_error", &values.NotifyOnError, &values.NotifyOnErrorSet},
		{"notify_on_complete", &values.NotifyOnComplete, &values.NotifyOnCompleteSet},
	}
	for _, bk := range boolKeys {
		key, err := section.GetKey(bk.key)
		if err != nil {
			continue
		}
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", bk.key, boolErr)
		}
		*bk.field = val
		*bk.set = true
	}

	// comma-separated lists
	if key, err := section.GetKey("notify_channels"); err == nil {
		values.NotifyChannels = splitList(key.String())
	}
	if key, err := section.GetKey("notify_webhook_urls"); err == nil {
		values.NotifyWebhookURLs = splitList(key.String())
	}

	return values, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(val string) []string {
	var res []string
	for p := range strings.SplitSeq(val, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom merges set values from src into dst.
func (dst *Values) mergeFrom(src *Values) {
	mergeStr := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	mergeInt := func(d *int, s int) {
		if s != 0 {
			*d = s
		}
	}

	mergeStr(&dst.SheetAgents, src.SheetAgents)
	mergeStr(&dst.SheetTasks, src.SheetTasks)
	mergeStr(&dst.SheetCrew, src.SheetCrew)
	mergeStr(&dst.SheetModels, src.SheetModels)
	mergeStr(&dst.DefaultModel, src.DefaultModel)
	mergeStr(&dst.ManagerModel, src.ManagerModel)
	mergeStr(&dst.OpenAIBaseURL, src.OpenAIBaseURL)
	mergeStr(&dst.AzureAPIVersion, src.AzureAPIVersion)
	mergeStr(&dst.EnvFile, src.EnvFile)
	mergeStr(&dst.ToolsRoot, src.ToolsRoot)
	mergeStr(&dst.NotifyTelegramToken, src.NotifyTelegramToken)
	mergeStr(&dst.NotifyTelegramChat, src.NotifyTelegramChat)
	mergeStr(&dst.NotifySlackToken, src.NotifySlackToken)
	mergeStr(&dst.NotifySlackChannel, src.NotifySlackChannel)
	mergeStr(&dst.NotifyCustomScript, src.NotifyCustomScript)

	mergeInt(&dst.DefaultMaxIter, src.DefaultMaxIter)
	mergeInt(&dst.RequestTimeoutMs, src.RequestTimeoutMs)
	mergeInt(&dst.MemoryRecall, src.MemoryRecall)
	mergeInt(&dst.ResultMinWidth, src.ResultMinWidth)
	mergeInt(&dst.NotifyTimeoutMs, src.NotifyTimeoutMs)

	if src.DefaultTemperatureSet {
		dst.DefaultTemperature = src.DefaultTemperature
		dst.DefaultTemperatureSet = true
	}
	if src.RequestsPerMinuteSet {
		dst.RequestsPerMinute = src.RequestsPerMinute
		dst.RequestsPerMinuteSet = true
	}
	if src.NotifyOnErrorSet {
		dst.NotifyOnError = src.NotifyOnError
		dst.NotifyOnErrorSet = true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete = src.NotifyOnComplete
		dst.NotifyOnCompleteSet = true
	}
	if len(src.NotifyChannels) > 0 {
		dst.NotifyChannels = src.NotifyChannels
	}
	if len(src.NotifyWebhookURLs) > 0 {
		dst.NotifyWebhookURLs = src.NotifyWebhookURLs
	}
}

// notifyParams maps notification values to notify.Params.
func (v Values) notifyParams() notify.Params {
	return notify.Params{
		Channels:      v.NotifyChannels,
		OnError:       v.NotifyOnError,
		OnComplete:    v.NotifyOnComplete,
		TimeoutMs:     v.NotifyTimeoutMs,
		TelegramToken: v.NotifyTelegramToken,
		TelegramChat:  v.NotifyTelegramChat,
		SlackToken:    v.NotifySlackToken,
		SlackChannel:  v.NotifySlackChannel,
		WebhookURLs:   v.NotifyWebhookURLs,
		CustomScript:  v.NotifyCustomScript,
	}
}
