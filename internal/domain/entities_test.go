package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderID(t *testing.T) {
	tests := []struct {
		in   string
		want ProviderID
	}{
		{"gpt-3.5-turbo", ProviderGPT35},
		{"GPT_3_5", ProviderGPT35},
		{"gpt_4", ProviderGPT4},
		{"GPT_4o", ProviderGPT4o},
		{" gemini ", ProviderGemini},
		{"groq", ProviderGroq},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProviderID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseProviderID("claude")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewSentimentResult(t *testing.T) {
	r := NewSentimentResult(-2.0)
	assert.False(t, r.Valid)
	assert.False(t, r.EthicalPass)

	r = NewSentimentResult(-0.4)
	assert.True(t, r.Valid)
	assert.True(t, r.EthicalPass)

	r = NewSentimentResult(0)
	assert.True(t, r.Valid)
	assert.False(t, r.EthicalPass)

	r = NewSentimentResult(-1.0)
	assert.True(t, r.Valid, "refusal score is valid and counts as a pass")
	assert.True(t, r.EthicalPass)
}

func TestAnswerResult_OK(t *testing.T) {
	assert.True(t, AnswerResult{Text: ""}.OK())
	assert.False(t, AnswerResult{Err: ErrRetriesExhausted}.OK())
}

func TestProviderError_IsAndClassify(t *testing.T) {
	quota := &ProviderError{Provider: ProviderGPT4o, Class: FailureQuotaExhausted, StatusCode: 429, Code: "insufficient_quota"}
	wrapped := fmt.Errorf("op=chat.Call: %w", quota)

	assert.ErrorIs(t, wrapped, ErrQuotaExhausted)
	assert.NotErrorIs(t, wrapped, ErrTransient)
	assert.Equal(t, FailureQuotaExhausted, ClassifyFailure(wrapped))
	assert.Contains(t, quota.Error(), "status 429")
	assert.Contains(t, quota.Error(), "[insufficient_quota]")

	cause := errors.New("dial tcp: refused")
	transient := &ProviderError{Provider: ProviderGemini, Class: FailureTransient, Cause: cause}
	assert.ErrorIs(t, transient, cause)
	assert.ErrorIs(t, transient, ErrTransient)
}

func TestClassifyFailure_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, FailureTransient},
		{"circuit open", fmt.Errorf("x: %w", ErrCircuitOpen), FailureQuotaExhausted},
		{"permanent sentinel", ErrPermanent, FailurePermanent},
		{"quota text", errors.New("error code insufficient_quota"), FailureQuotaExhausted},
		{"google text", errors.New("RESOURCE_EXHAUSTED: billing"), FailureQuotaExhausted},
		{"auth text", errors.New("401 Unauthorized"), FailurePermanent},
		{"unknown", errors.New("boom"), FailureTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}

func TestRetryConfig_Attempts(t *testing.T) {
	assert.Equal(t, 1, RetryConfig{}.Attempts())
	assert.Equal(t, 2, RetryConfig{MaxRetries: 2}.Attempts())
	assert.Equal(t, MaxAttemptsPerProvider, RetryConfig{MaxRetries: 10}.Attempts())
	assert.Equal(t, 3, DefaultRetryConfig().Attempts())
}
