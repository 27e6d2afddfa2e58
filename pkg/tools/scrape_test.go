package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeTool_Call(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>t</title><script>alert("x")</script></head>
<body><h1>Heading</h1><p>First &amp; foremost</p><div>second<br>line</div></body></html>`))
	}))
	defer srv.Close()

	tool := NewScrapeTool(srv.Client())
	out, err := tool.Call(context.Background(), json.RawMessage(`{"website_url":"`+srv.URL+`"}`))
	require.NoError(t, err)

	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "First & foremost")
	assert.Contains(t, out, "second\nline")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "alert")
}

func TestScrapeTool_Call_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = w.Write([]byte("<div>  </div>"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		url     string
		errPart string
	}{
		{name: "not http", url: "ftp://example.com", errPart: "invalid website_url"},
		{name: "no host", url: "https://", errPart: "invalid website_url"},
		{name: "not found", url: srv.URL + "/missing", errPart: "status 404"},
		{name: "no text", url: srv.URL + "/empty", errPart: "no readable text"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tool := NewScrapeTool(srv.Client())
			_, err := tool.Call(context.Background(), json.RawMessage(`{"website_url":"`+tc.url+`"}`))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestScrapeTool_TruncatesLongPages(t *testing.T) {
	tool := NewScrapeTool(http.DefaultClient)
	out := tool.htmlToText("<p>" + strings.Repeat("a", maxScrapeText+100) + "</p>")
	assert.True(t, strings.HasSuffix(out, "[content truncated]"))
}
