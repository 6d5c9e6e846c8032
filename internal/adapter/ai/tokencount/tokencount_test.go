package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeModelName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"gpt-4o":               "gpt-4o",
		"GPT-4":                "gpt-4",
		"gpt-3.5-turbo":        "gpt-3.5-turbo",
		"gemini":               "gpt-4",
		"llama-3.1-8b-instant": "gpt-4",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeModelName(in), in)
	}
}

func TestNilCounterEstimate(t *testing.T) {
	t.Parallel()
	var c *Counter
	assert.Zero(t, c.Estimate("anything", "gpt-4"))
}

// Encodings are fetched on first use, so these cases need network access.
func TestCountTokens(t *testing.T) {
	if testing.Short() {
		t.Skip("encoding download required")
	}
	counter := NewCounter()

	count, err := counter.CountTokens("Hello, world!", "gpt-4")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 3)
	assert.LessOrEqual(t, count, 5)

	prompt, err := counter.CountPromptTokens("Hello, world!", "gpt-3.5-turbo")
	require.NoError(t, err)
	assert.Equal(t, count+7, prompt)

	assert.Equal(t, prompt, counter.Estimate("Hello, world!", "gpt-3.5-turbo"))
}
