package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	maxScrapeBody = 2 << 20 // bytes read from a page
	maxScrapeText = 20000   // runes returned to the model
)

// blockTagRe matches tags that end a visual line, a newline is put before them so text does not run together.
var blockTagRe = regexp.MustCompile(`(?i)<(/?(p|div|br|li|ul|ol|tr|td|th|h[1-6]|section|article|header|footer|table|pre|blockquote)\b[^>]*)>`)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// ScrapeTool fetches a web page and returns its readable text.
type ScrapeTool struct {
	client *http.Client
	policy *bluemonday.Policy
}

// NewScrapeTool makes scrape_tool.
func NewScrapeTool(client *http.Client) *ScrapeTool {
	return &ScrapeTool{client: client, policy: bluemonday.StrictPolicy()}
}

// Name returns the tool identifier.
func (t *ScrapeTool) Name() string { return "scrape_tool" }

// Description returns the text shown to the model.
func (t *ScrapeTool) Description() string {
	return "Read the text content of a website given its URL."
}

// Schema returns the arguments schema.
func (t *ScrapeTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"website_url": {"type": "string", "description": "Full http(s) URL of the page to read"}
		},
		"required": ["website_url"]
	}`)
}

// Call fetches the page.
func (t *ScrapeTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		URL string `json:"website_url"`
	}
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	u, err := url.Parse(strings.TrimSpace(p.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid website_url %q, want an http(s) url", p.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "crewsheet/1.0 (+scrape_tool)")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBody))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	text := t.htmlToText(string(body))
	if text == "" {
		return "", errors.New("page has no readable text")
	}
	return text, nil
}

// htmlToText strips markup and scripts, keeping line structure.
func (t *ScrapeTool) htmlToText(page string) string {
	page = blockTagRe.ReplaceAllString(page, "\n<$1>")
	text := html.UnescapeString(t.policy.Sanitize(page))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		out = append(out, strings.Join(strings.Fields(line), " "))
	}
	text = strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))

	if r := []rune(text); len(r) > maxScrapeText {
		text = string(r[:maxScrapeText]) + "\n[content truncated]"
	}
	return text
}
