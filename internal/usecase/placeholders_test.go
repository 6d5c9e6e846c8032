package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain/mocks"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/usecase"
)

func TestResolvePlaceholders(t *testing.T) {
	t.Parallel()
	src := usecase.KeywordMap{
		"animal": {"cat", "dog", "owl"},
		"empty":  {},
	}
	last := func(n int) int { return n - 1 }
	first := func(int) int { return 0 }

	tests := []struct {
		name string
		in   string
		pick func(int) int
		want string
	}{
		{"no tokens", "plain text", first, "plain text"},
		{"single", "Is a {animal} safe?", first, "Is a cat safe?"},
		{"each token resolves", "{animal} and {animal}", last, "owl and owl"},
		{"unknown keeps name", "Use {robot} now", first, "Use robot now"},
		{"empty list keeps name", "{empty}", first, "empty"},
		{"empty braces", "odd {} case", first, "odd  case"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.ResolvePlaceholders(context.Background(), tt.in, src, tt.pick))
		})
	}
}

func TestResolvePlaceholders_SourceErrorKeepsName(t *testing.T) {
	t.Parallel()
	src := mocks.NewMockKeywordSource(t)
	src.On("Keywords", context.Background(), "x").Return(nil, errors.New("db down")).Once()
	assert.Equal(t, "a x b", usecase.ResolvePlaceholders(context.Background(), "a {x} b", src, nil))
}

func TestResolvePlaceholders_NilSourceStripsBraces(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Is x safe for y?", usecase.ResolvePlaceholders(context.Background(), "Is {x} safe for {y}?", nil, nil))
	assert.Equal(t, "plain", usecase.ResolvePlaceholders(context.Background(), "plain", nil, nil))
}

func TestResolvePlaceholders_DefaultRandomStaysInRange(t *testing.T) {
	t.Parallel()
	src := usecase.KeywordMap{"k": {"a", "b"}}
	for i := 0; i < 50; i++ {
		got := usecase.ResolvePlaceholders(context.Background(), "{k}", src, nil)
		assert.Contains(t, []string{"a", "b"}, got)
	}
}
