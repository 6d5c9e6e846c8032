// Package tokencount counts prompt tokens sent to providers.
//
// It uses tiktoken-go. Non-OpenAI models are counted with the cl100k_base
// encoding, which is close enough for usage tracking.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Counter provides thread-safe token counting with cached encodings.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

func (c *Counter) getEncodingForModel(model string) (*tiktoken.Tiktoken, error) {
	normalizedModel := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[normalizedModel]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(normalizedModel)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[normalizedModel] = enc
	return enc, nil
}

// normalizeModelName maps a model or provider id to a tiktoken model name.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	switch {
	case strings.Contains(model, "gpt-4o"):
		return "gpt-4o"
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	case strings.Contains(model, "gpt-3.5"):
		return "gpt-3.5-turbo"
	default:
		// gemini, llama and the rest
		return "gpt-4"
	}
}

// CountTokens counts the tokens of text for model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// CountPromptTokens counts a single user-message chat prompt, including the
// per-message overhead of OpenAI-compatible APIs.
func (c *Counter) CountPromptTokens(prompt, model string) (int, error) {
	enc, err := c.getEncodingForModel(model)
	if err != nil {
		return 0, err
	}
	const tokensPerMessage, replyPriming = 3, 3
	n := tokensPerMessage
	n += len(enc.Encode("user", nil, nil))
	n += len(enc.Encode(prompt, nil, nil))
	return n + replyPriming, nil
}

// Estimate counts prompt tokens, falling back to ~4 chars per token when the
// encoding is unavailable. A nil counter returns 0.
func (c *Counter) Estimate(prompt, model string) int {
	if c == nil {
		return 0
	}
	n, err := c.CountPromptTokens(prompt, model)
	if err != nil {
		slog.Warn("failed to count prompt tokens, using estimate", slog.String("model", model), slog.Any("error", err))
		return len(prompt) / 4
	}
	return n
}
