package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

func newAdapter(t *testing.T, h http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		APIKey:     "g-key",
		URL:        srv.URL + "/v1beta/models/gemini-1.5-flash:generateContent",
		HTTPClient: srv.Client(),
	})
}

func TestCall_BuildsRequestAndParsesFirstCandidate(t *testing.T) {
	var got generateRequest
	a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"1. Yes\n2. No\n\n"},{"text":"ignored"}]}},{"content":{"parts":[{"text":"second"}]}}]}`))
	})

	ans, err := a.Call(context.Background(), "1. Q1\n2. Q2")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGemini, a.ID())
	assert.Equal(t, domain.ProviderGemini, ans.Provider)
	assert.Equal(t, "1. Yes\n2. No", ans.Text)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, config.DefaultGeminiPrefix+"1. Q1\n2. Q2", got.Contents[0].Parts[0].Text)
	assert.Equal(t, 250, got.GenerationConfig.MaxOutputTokens)
}

func TestCall_MalformedSuccessYieldsEmptyText(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"no candidates", `{"candidates":[]}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			ans, err := a.Call(context.Background(), "Q")
			require.NoError(t, err)
			assert.Empty(t, ans.Text)
		})
	}
}

func TestCall_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.FailureClass
	}{
		{
			name:   "quota exhausted",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.","status":"RESOURCE_EXHAUSTED"}}`,
			want:   domain.FailureQuotaExhausted,
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Too many requests","status":"RESOURCE_EXHAUSTED"}}`,
			want:   domain.FailureTransient,
		},
		{
			name:   "unavailable",
			status: http.StatusServiceUnavailable,
			body:   `{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`,
			want:   domain.FailureTransient,
		},
		{
			name:   "bad key",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`,
			want:   domain.FailurePermanent,
		},
		{
			name:   "non json error body",
			status: http.StatusForbidden,
			body:   "forbidden",
			want:   domain.FailurePermanent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := a.Call(context.Background(), "Q")
			require.Error(t, err)
			var pe *domain.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.want, pe.Class)
			assert.Equal(t, tt.status, pe.StatusCode)
		})
	}
}

func TestCall_NetworkErrorIsTransientAndRedacted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	a := New(Options{APIKey: "secret-key", URL: srv.URL + "/gen"})

	_, err := a.Call(context.Background(), "Q")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.NotContains(t, pe.Message, "secret-key")
}

func TestCall_BadEndpointIsPermanent(t *testing.T) {
	a := New(Options{URL: "://nope"})
	_, err := a.Call(context.Background(), "Q")
	assert.ErrorIs(t, err, domain.ErrPermanent)
}
