package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalCollector_AskLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
		prompts int
	}{
		{name: "single answer", input: "https://docs.google.com/spreadsheets/d/abc/edit\n", want: "https://docs.google.com/spreadsheets/d/abc/edit", prompts: 1},
		{name: "trims spaces", input: "  ./sheet  \n", want: "./sheet", prompts: 1},
		{name: "no trailing newline", input: "./sheet", want: "./sheet", prompts: 1},
		{name: "asks again on empty", input: "\n \n./sheet\n", want: "./sheet", prompts: 3},
		{name: "gives up after attempts", input: "\n\n\n./late\n", wantErr: ErrNoInput.Error(), prompts: 3},
		{name: "eof", input: "", wantErr: ErrNoInput.Error(), prompts: 1},
		{name: "eof after blanks", input: "\n  ", wantErr: ErrNoInput.Error(), prompts: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout bytes.Buffer
			c := &TerminalCollector{stdin: strings.NewReader(tc.input), stdout: &stdout}

			got, err := c.AskLine(context.Background(), "Sheet URL: ")
			assert.Equal(t, tc.prompts, strings.Count(stdout.String(), "Sheet URL: "))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTerminalCollector_AskLine_ReadsSequentialLines(t *testing.T) {
	c := &TerminalCollector{stdin: strings.NewReader("first\nsecond\n"), stdout: io.Discard}

	first, err := c.AskLine(context.Background(), "> ")
	require.NoError(t, err)
	second, err := c.AskLine(context.Background(), "> ")
	require.NoError(t, err)

	assert.Equal(t, "first", first)
	assert.Equal(t, "second", second)
}

func TestTerminalCollector_AskLine_Canceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &TerminalCollector{stdin: pr, stdout: io.Discard}
	_, err := c.AskLine(ctx, "> ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewTerminalCollector(t *testing.T) {
	c := NewTerminalCollector()
	assert.NotNil(t, c)
}

func TestTerminalCollector_AskLine_EOFIsNoInput(t *testing.T) {
	c := &TerminalCollector{stdin: strings.NewReader(""), stdout: io.Discard}
	_, err := c.AskLine(context.Background(), "> ")
	require.ErrorIs(t, err, ErrNoInput)
}
