package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultSerperURL   = "https://google.serper.dev/search"
	defaultSearchCount = 5
	maxSearchCount     = 20
)

// SearchTool searches the web through the Serper API.
type SearchTool struct {
	apiKey string
	url    string
	client *http.Client
}

// NewSearchTool makes search_tool. An empty url uses the public Serper endpoint.
func NewSearchTool(apiKey, url string, client *http.Client) *SearchTool {
	if url == "" {
		url = defaultSerperURL
	}
	return &SearchTool{apiKey: apiKey, url: url, client: client}
}

// Name returns the tool identifier.
func (t *SearchTool) Name() string { return "search_tool" }

// Description returns the text shown to the model.
func (t *SearchTool) Description() string {
	return "Search the internet. Returns titles, links and snippets of the top results."
}

// Schema returns the arguments schema.
func (t *SearchTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"search_query": {"type": "string", "description": "The query to search the internet with"},
			"count": {"type": "integer", "minimum": 1, "maximum": 20, "description": "Number of results (default: 5)"}
		},
		"required": ["search_query"]
	}`)
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Call runs the search.
func (t *SearchTool) Call(ctx context.Context, args json.RawMessage) (string, error) {
	var p struct {
		Query string `json:"search_query"`
		Count int    `json:"count"`
	}
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Query) == "" {
		return "", errors.New("search_query is required")
	}
	if t.apiKey == "" {
		return "", errors.New("search_tool needs SERPER_API_KEY")
	}
	if p.Count <= 0 {
		p.Count = defaultSearchCount
	}
	p.Count = min(p.Count, maxSearchCount)

	body, err := json.Marshal(map[string]any{"q": p.Query, "num": p.Count})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("search api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	return formatSearch(p.Query, sr, p.Count), nil
}

func formatSearch(query string, sr serperResponse, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	if ab := sr.AnswerBox; ab != nil {
		answer := ab.Answer
		if answer == "" {
			answer = ab.Snippet
		}
		if answer != "" {
			fmt.Fprintf(&b, "\nAnswer: %s\n", answer)
		}
	}
	if len(sr.Organic) == 0 {
		b.WriteString("\nNo results found.\n")
		return b.String()
	}
	for i, r := range sr.Organic {
		if i >= limit {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return b.String()
}
