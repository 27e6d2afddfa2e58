package engine

import (
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the tiktoken encoding used for context budgets.
const tokenEncoding = "cl100k_base"

// encodingLoadTimeout bounds the first-use download of the BPE ranks.
const encodingLoadTimeout = 20 * time.Second

// tokenCounter counts tokens with tiktoken, loaded on first use. When the encoding can't be
// loaded within timeout it counts four characters per token.
type tokenCounter struct {
	once    sync.Once
	enc     *tiktoken.Tiktoken
	load    func() (*tiktoken.Tiktoken, error)
	timeout time.Duration // zero uses encodingLoadTimeout
}

func newTokenCounter() *tokenCounter {
	return &tokenCounter{load: func() (*tiktoken.Tiktoken, error) { return tiktoken.GetEncoding(tokenEncoding) }}
}

func (c *tokenCounter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		timeout := c.timeout
		if timeout <= 0 {
			timeout = encodingLoadTimeout
		}
		// GetEncoding fetches the ranks without a deadline, an abandoned load finishes in the background
		done := make(chan *tiktoken.Tiktoken, 1)
		go func() {
			enc, err := c.load()
			if err != nil {
				enc = nil
			}
			done <- enc
		}()
		select {
		case c.enc = <-done:
		case <-time.After(timeout):
		}
	})
	return c.enc
}

// Count returns the number of tokens in text.
func (c *tokenCounter) Count(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len([]rune(text)) + 3) / 4
}

// Tail returns the end of text holding at most n tokens.
func (c *tokenCounter) Tail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if enc := c.encoding(); enc != nil {
		toks := enc.Encode(text, nil, nil)
		if len(toks) <= n {
			return text
		}
		return enc.Decode(toks[len(toks)-n:])
	}
	r := []rune(text)
	if len(r) <= n*4 {
		return text
	}
	return string(r[len(r)-n*4:])
}
