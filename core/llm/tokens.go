package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates prompt sizes with a tiktoken encoding.
// A zero or disabled counter reports -1.
type TokenCounter struct {
	name string
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter prepares a counter for encoding; "off" or "" disables it.
// The encoding is loaded on first use.
func NewTokenCounter(encoding string) *TokenCounter {
	encoding = strings.TrimSpace(encoding)
	if encoding == "off" {
		encoding = ""
	}
	return &TokenCounter{name: encoding}
}

// Count returns the token count of all message contents, or -1 when unavailable.
func (c *TokenCounter) Count(messages []Message) int {
	if c == nil || c.name == "" {
		return -1
	}
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.name)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc == nil {
		return -1
	}
	total := 0
	for _, m := range messages {
		total += len(c.enc.Encode(m.Content, nil, nil))
	}
	return total
}
