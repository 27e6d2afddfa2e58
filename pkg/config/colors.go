package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// colorKeys maps config keys to the ColorConfig field they set.
var colorKeys = []struct {
	key   string
	field func(c *ColorConfig) *string
}{
	{"color_agent", func(c *ColorConfig) *string { return &c.Agent }},
	{"color_task", func(c *ColorConfig) *string { return &c.Task }},
	{"color_crew", func(c *ColorConfig) *string { return &c.Crew }},
	{"color_run", func(c *ColorConfig) *string { return &c.Run }},
	{"color_warn", func(c *ColorConfig) *string { return &c.Warn }},
	{"color_error", func(c *ColorConfig) *string { return &c.Error }},
	{"color_timestamp", func(c *ColorConfig) *string { return &c.Timestamp }},
	{"color_info", func(c *ColorConfig) *string { return &c.Info }},
}

// colorLoader reads color_* keys from the embedded defaults, then the global and local config.
type colorLoader struct {
	embedFS embed.FS
}

func newColorLoader(embedFS embed.FS) *colorLoader {
	return &colorLoader{embedFS: embedFS}
}

// Load applies embedded, global and local layers in this order. Later layers win per key,
// a missing file or an empty path is skipped.
func (cl *colorLoader) Load(localConfigPath, globalConfigPath string) (ColorConfig, error) {
	embedded, err := cl.embedFS.ReadFile("defaults/config")
	if err != nil {
		return ColorConfig{}, fmt.Errorf("read embedded defaults: %w", err)
	}

	var colors ColorConfig
	if err := colors.apply(embedded); err != nil {
		return ColorConfig{}, fmt.Errorf("parse embedded defaults: %w", err)
	}

	for _, layer := range []struct{ name, path string }{{"global", globalConfigPath}, {"local", localConfigPath}} {
		if layer.path == "" {
			continue
		}
		data, err := os.ReadFile(layer.path) //nolint:gosec // path is constructed internally
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return ColorConfig{}, fmt.Errorf("read %s config: %w", layer.name, err)
		}
		if err := colors.apply(data); err != nil {
			return ColorConfig{}, fmt.Errorf("parse %s config: %w", layer.name, err)
		}
	}
	return colors, nil
}

// apply sets every color present in data, hex values are stored as "r,g,b".
func (c *ColorConfig) apply(data []byte) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	section := cfg.Section("")
	for _, ck := range colorKeys {
		hex := strings.TrimSpace(section.Key(ck.key).String())
		if hex == "" {
			continue
		}
		r, g, b, err := parseHexColor(hex)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ck.key, err)
		}
		*ck.field(c) = fmt.Sprintf("%d,%d,%d", r, g, b)
	}
	return nil
}

// parseHexColor parses "#rrggbb" into its components.
func parseHexColor(hex string) (r, g, b int, err error) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, errors.New("hex color must look like #rrggbb")
	}
	val, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return int(val >> 16 & 0xff), int(val >> 8 & 0xff), int(val & 0xff), nil
}
