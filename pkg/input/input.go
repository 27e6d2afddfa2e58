// Package input provides terminal input collection for the interactive sheet prompt.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:generate moq -out mocks/collector.go -pkg mocks -skip-ensure -fmt goimports . Collector

// ErrNoInput is returned when the user gives no answer after all attempts.
var ErrNoInput = errors.New("no input provided")

// maxAttempts limits how many times an empty answer is asked again.
const maxAttempts = 3

// Collector provides interactive line input.
type Collector interface {
	// AskLine prints prompt and returns the trimmed, non-empty line typed by the user.
	AskLine(ctx context.Context, prompt string) (string, error)
}

// TerminalCollector implements Collector reading lines from stdin.
type TerminalCollector struct {
	stdin  io.Reader // for testing, nil uses os.Stdin
	stdout io.Writer // for testing, nil uses os.Stdout
	reader *bufio.Reader
}

// NewTerminalCollector creates a new TerminalCollector with default stdin/stdout.
func NewTerminalCollector() *TerminalCollector {
	return &TerminalCollector{}
}

// AskLine prints prompt and reads one line, asking again on an empty answer.
// Cancelling ctx returns ctx.Err() without waiting for input.
func (c *TerminalCollector) AskLine(ctx context.Context, prompt string) (string, error) {
	stdout := c.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if c.reader == nil {
		stdin := c.stdin
		if stdin == nil {
			stdin = os.Stdin
		}
		c.reader = bufio.NewReader(stdin)
	}

	for range maxAttempts {
		_, _ = fmt.Fprint(stdout, prompt)
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return "", ErrNoInput
}

type lineResult struct {
	line string
	err  error
}

func (c *TerminalCollector) readLine(ctx context.Context) (string, error) {
	ch := make(chan lineResult, 1)
	go func() {
		line, err := c.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			ch <- lineResult{err: ErrNoInput}
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			ch <- lineResult{err: fmt.Errorf("read input: %w", err)}
			return
		}
		ch <- lineResult{line: line}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}
