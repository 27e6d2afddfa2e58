package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		width   int
		noColor bool
		want    []string
	}{
		{name: "heading and bold", content: "# Findings\n\nGo has **modules**.", width: 80, want: []string{"Findings", "modules"}},
		{name: "list", content: "- semver\n- go.sum\n- proxy", width: 80, want: []string{"semver", "proxy"}},
		{name: "plain style", content: "# Findings\n\nGo has **modules**.", width: 80, noColor: true, want: []string{"Findings", "modules"}},
		{name: "default width", content: "short answer", width: 0, noColor: true, want: []string{"short answer"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := RenderMarkdown(tc.content, tc.width, tc.noColor)
			require.NoError(t, err)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			if tc.noColor {
				assert.NotContains(t, out, "\x1b[")
			}
		})
	}
}

func TestRenderMarkdown_Wraps(t *testing.T) {
	out, err := RenderMarkdown(strings.Repeat("agent ", 40), 40, true)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 40)
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	out, err := RenderMarkdown("", 0, false)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}
