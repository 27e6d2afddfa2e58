package render

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

// ResultHeader is the heading of the framed result table.
const ResultHeader = "Here are the results"

// framePadding is the width taken by the table's side borders and cell padding.
const framePadding = 4

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Padding(0, 1)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TerminalWidth returns the terminal width from COLUMNS or the stdout terminal, 0 when unknown.
func TerminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			return w
		}
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 0
}

// ResultWidth returns the width of the result table: the terminal width, never less than minWidth.
func ResultWidth(minWidth int) int {
	return max(TerminalWidth(), minWidth)
}

// ResultTable frames the final result in a single-column table headed by ResultHeader.
// The result is rendered as markdown and the table is width columns wide.
func ResultTable(result string, width int, noColor bool) (string, error) {
	contentWidth := max(width-framePadding, 1)

	body, err := RenderMarkdown(result, contentWidth, noColor)
	if err != nil {
		return "", err
	}
	body = strings.Trim(body, "\n")
	// pads every line to the content width so the frame never shrinks below width
	body = lipgloss.NewStyle().Width(contentWidth).Render(body)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(ResultHeader).
		Row(body).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case noColor:
				return cellStyle
			case row == table.HeaderRow:
				return headerStyle
			default:
				return resultStyle
			}
		})
	if !noColor {
		t = t.BorderStyle(borderStyle)
	}
	return t.Render(), nil
}

// Overview renders a framed table with a title line, used for the agents and tasks summary.
// Cells longer than maxCell runes are shortened with an ellipsis.
func Overview(title string, headers []string, rows [][]string, maxCell int, noColor bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow && !noColor {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = shorten(c, maxCell)
		}
		t = t.Row(cells...)
	}
	if !noColor {
		t = t.BorderStyle(borderStyle)
		title = headerStyle.UnsetPadding().Render(title)
	}
	return title + "\n" + t.Render()
}

// shorten collapses whitespace and cuts s to limit runes.
func shorten(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}
