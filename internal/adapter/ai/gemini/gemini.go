// Package gemini implements the Google Gemini generateContent provider.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

const maxBodyBytes = 1 << 20

// Options configures the Gemini adapter.
type Options struct {
	APIKey string
	// URL is the full generateContent endpoint; the key is appended as ?key=.
	URL        string
	MaxTokens  int
	HTTPClient *http.Client
	Prompts    config.Prompts
	Tokens     *tokencount.Counter
}

// Adapter is a domain.ProviderAdapter for Gemini.
type Adapter struct {
	apiKey    string
	endpoint  string
	maxTokens int
	prefix    string
	hc        *http.Client
	tokens    *tokencount.Counter
}

// New builds a Gemini adapter.
func New(o Options) *Adapter {
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	prefix := o.Prompts.GeminiPrefix
	if prefix == "" {
		prefix = config.DefaultGeminiPrefix
	}
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 250
	}
	return &Adapter{
		apiKey:    o.APIKey,
		endpoint:  o.URL,
		maxTokens: maxTokens,
		prefix:    prefix,
		hc:        hc,
		tokens:    o.Tokens,
	}
}

// ID returns domain.ProviderGemini.
func (a *Adapter) ID() domain.ProviderID { return domain.ProviderGemini }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

// Call sends the Yes/No instruction prefix plus question and returns the
// first candidate's first text part. A 200 reply without that field yields
// empty text and no error.
func (a *Adapter) Call(ctx context.Context, question string) (domain.RawAnswer, error) {
	prompt := a.prefix + question
	observability.AddPromptTokens(string(domain.ProviderGemini), a.tokens.Estimate(prompt, "gemini"))

	req, err := a.build(ctx, prompt)
	if err != nil {
		return domain.RawAnswer{}, &domain.ProviderError{
			Provider: domain.ProviderGemini,
			Class:    domain.FailurePermanent,
			Message:  "build request",
			Cause:    err,
		}
	}

	start := time.Now()
	resp, err := a.hc.Do(req)
	observability.ObserveProviderCall(string(domain.ProviderGemini), "generate", time.Since(start))
	if err != nil {
		return domain.RawAnswer{}, &domain.ProviderError{
			Provider: domain.ProviderGemini,
			Class:    domain.FailureTransient,
			Message:  redact(err.Error(), a.apiKey),
			Cause:    err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.RawAnswer{}, &domain.ProviderError{
			Provider:   domain.ProviderGemini,
			Class:      domain.FailureTransient,
			StatusCode: resp.StatusCode,
			Message:    "read response",
			Cause:      err,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.RawAnswer{}, parseError(resp.StatusCode, body)
	}
	return domain.RawAnswer{Provider: domain.ProviderGemini, Text: parseText(body), ReceivedAt: time.Now()}, nil
}

func (a *Adapter) build(ctx context.Context, prompt string) (*http.Request, error) {
	u, err := url.Parse(a.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", a.apiKey)
	u.RawQuery = q.Encode()

	b, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{MaxOutputTokens: a.maxTokens},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func parseText(body []byte) string {
	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		slog.Warn("gemini response malformed; treating as empty answer", slog.Any("error", err))
		return ""
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		slog.Warn("gemini response has no candidate text")
		return ""
	}
	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
}

// parseError converts a Google error body into a ProviderError.
func parseError(status int, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	pe := &domain.ProviderError{Provider: domain.ProviderGemini, StatusCode: status}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		pe.Code = errResp.Error.Status
		pe.Message = errResp.Error.Message
	} else {
		pe.Message = strings.TrimSpace(string(body))
	}
	pe.Class = classify(status, pe.Code, pe.Message)
	return pe
}

func classify(status int, code, message string) domain.FailureClass {
	msg := strings.ToLower(message)
	if strings.EqualFold(code, "RESOURCE_EXHAUSTED") &&
		(strings.Contains(msg, "quota") || strings.Contains(msg, "billing")) {
		return domain.FailureQuotaExhausted
	}
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return domain.FailureTransient
	case status >= 400:
		return domain.FailurePermanent
	}
	return domain.FailureTransient
}

func redact(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "REDACTED")
}
