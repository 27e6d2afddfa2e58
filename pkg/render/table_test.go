package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultTable(t *testing.T) {
	out, err := ResultTable("The report is ready.\n\nSecond paragraph.", 120, true)
	require.NoError(t, err)

	assert.Contains(t, out, ResultHeader)
	assert.Contains(t, out, "The report is ready.")
	assert.Contains(t, out, "Second paragraph.")

	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.GreaterOrEqual(t, lipgloss.Width(lines[0]), 120)
}

func TestResultTable_WrapsLongResult(t *testing.T) {
	out, err := ResultTable(strings.Repeat("lorem ipsum ", 40), 60, true)
	require.NoError(t, err)

	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 60, "line %q", line)
	}
	assert.Contains(t, out, "lorem")
}

func TestResultWidth(t *testing.T) {
	t.Setenv("COLUMNS", "80")
	assert.Equal(t, 120, ResultWidth(120))

	t.Setenv("COLUMNS", "200")
	assert.Equal(t, 200, ResultWidth(120))
}

func TestOverview(t *testing.T) {
	out := Overview("Agents", []string{"Role", "Goal"},
		[][]string{{"Researcher", "find   the\nfacts"}, {"Writer", strings.Repeat("x", 50)}}, 20, true)

	assert.True(t, strings.HasPrefix(out, "Agents\n"))
	assert.Contains(t, out, "Role")
	assert.Contains(t, out, "Researcher")
	assert.Contains(t, out, "find the facts")
	assert.Contains(t, out, strings.Repeat("x", 19)+"…")
	assert.NotContains(t, out, strings.Repeat("x", 20))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "a b", shorten(" a\n b ", 10))
	assert.Equal(t, "abcd…", shorten("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", shorten("abcdefgh", 0))
	assert.Equal(t, "…", shorten("abc", 1))
}
