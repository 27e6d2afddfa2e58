// Package llm is a small client for OpenAI-compatible chat completion and embedding APIs.
// It speaks the hosted OpenAI shape, the Azure deployment shape and local OpenAI-compatible servers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/umputun/crewsheet/pkg/model"
)

// errors returned for non-200 responses, wrapped with the status and body
var (
	ErrRateLimit       = errors.New("rate limited")
	ErrAuth            = errors.New("authentication failed")
	ErrContextOverflow = errors.New("context too large")
	ErrServer          = errors.New("server error")
)

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 10 << 20

// message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat message.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages requesting tool calls
	ToolCallID string     // set on tool messages
}

// ToolCall is a function call requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDef describes a function offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolDef
	Temperature *float64
}

// Usage reports token counts.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the first choice of a chat completion.
type ChatResponse struct {
	Message      Message
	FinishReason string
	Usage        Usage
}

// Options tune the client.
type Options struct {
	Timeout           time.Duration // per-request timeout, 0 keeps the http client default
	RequestsPerMinute int           // 0 disables pacing
	HTTPClient        *http.Client  // nil makes a new client
}

// Client talks to one endpoint.
type Client struct {
	endpoint model.Endpoint
	http     *http.Client
	limiter  *rate.Limiter
}

// New makes a client for an endpoint.
func New(ep model.Endpoint, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.Timeout > 0 {
		clone := *hc
		clone.Timeout = opts.Timeout
		hc = &clone
	}
	c := &Client{endpoint: ep, http: hc}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c
}

// Model returns the model name of the endpoint.
func (c *Client) Model() string {
	return c.endpoint.Name
}

// Endpoint returns the endpoint the client calls.
func (c *Client) Endpoint() model.Endpoint {
	return c.endpoint
}

// Chat sends a chat completion request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(toWireRequest(c.endpoint.Name, req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "chat/completions", body)
	if err != nil {
		return nil, err
	}

	var wr wireResponse
	if err := json.Unmarshal(respBody, &wr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(wr.Choices) == 0 {
		return nil, fmt.Errorf("model %s returned no choices", c.endpoint.Name)
	}
	return fromWireResponse(wr), nil
}

// Embed returns one embedding vector per input, in input order.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: c.endpoint.Name, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "embeddings", body)
	if err != nil {
		return nil, err
	}

	var er embeddingResponse
	if err := json.Unmarshal(respBody, &er); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(er.Data) != len(inputs) {
		return nil, fmt.Errorf("model %s returned %d embeddings for %d inputs", c.endpoint.Name, len(er.Data), len(inputs))
	}

	vectors := make([][]float32, len(inputs))
	for i, d := range er.Data {
		idx := d.Index
		if idx < 0 || idx >= len(inputs) {
			idx = i
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}

// url returns the request URL for an operation ("chat/completions" or "embeddings").
func (c *Client) url(op string) string {
	ep := c.endpoint
	if ep.Provider == model.AzureOpenAI {
		q := url.Values{}
		if ep.APIVersion != "" {
			q.Set("api-version", ep.APIVersion)
		}
		u := fmt.Sprintf("%s/openai/deployments/%s/%s", ep.URL, url.PathEscape(ep.Deployment), op)
		if len(q) > 0 {
			u += "?" + q.Encode()
		}
		return u
	}
	return ep.URL + "/" + op
}

func (c *Client) headers() map[string]string {
	ep := c.endpoint
	switch {
	case ep.Provider == model.AzureOpenAI:
		return map[string]string{"api-key": ep.APIKey}
	case ep.APIKey == "" || ep.APIKey == model.PlaceholderKey:
		return nil
	default:
		return map[string]string{"Authorization": "Bearer " + ep.APIKey}
	}
}

func (c *Client) post(ctx context.Context, op string, body []byte) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(op), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers() {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request to %s: %w", c.endpoint.Name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// mapHTTPError maps a status code and body to one of the package errors.
func mapHTTPError(status int, body []byte) error {
	detail := fmt.Sprintf("api error %d: %s", status, bytes.TrimSpace(body))
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, detail)
	case status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", ErrContextOverflow, detail)
	case status >= 500:
		return fmt.Errorf("%w: %s", ErrServer, detail)
	default:
		return errors.New(detail)
	}
}
