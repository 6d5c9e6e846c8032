// Package chat implements the chat-completion provider family (OpenAI GPT
// models and OpenAI-compatible hosts such as Groq) on top of go-openai.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// Options configures one chat provider.
type Options struct {
	ID         domain.ProviderID
	Model      string
	APIKey     string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
	Prompts    config.Prompts
	// Tokens counts prompt tokens for metrics. Nil skips counting.
	Tokens *tokencount.Counter
}

// Adapter is a domain.ProviderAdapter for one chat-completion model.
type Adapter struct {
	id        domain.ProviderID
	model     string
	maxTokens int
	prompts   config.Prompts
	tokens    *tokencount.Counter
	client    *openai.Client
}

// New builds an adapter. Model defaults to the provider id and MaxTokens to 250.
func New(o Options) *Adapter {
	cc := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(o.BaseURL, "/")
	}
	if o.HTTPClient != nil {
		cc.HTTPClient = o.HTTPClient
	}
	model := o.Model
	if model == "" {
		model = string(o.ID)
	}
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 250
	}
	prompts := o.Prompts
	if prompts.RefusalAlternate == "" {
		prompts.RefusalAlternate = config.DefaultRefusalPrompt
	}
	if prompts.HumanRightsHint == "" {
		prompts.HumanRightsHint = config.DefaultHumanRightsHint
	}
	return &Adapter{
		id:        o.ID,
		model:     model,
		maxTokens: maxTokens,
		prompts:   prompts,
		tokens:    o.Tokens,
		client:    openai.NewClientWithConfig(cc),
	}
}

// ID returns the provider id.
func (a *Adapter) ID() domain.ProviderID { return a.id }

// Call sends question as a single user message and returns the first
// choice's content. A refusal is re-asked once with the evaluation framing;
// if that second call fails the first reply is kept.
func (a *Adapter) Call(ctx context.Context, question string) (domain.RawAnswer, error) {
	prompt := a.prepare(question)
	text, err := a.complete(ctx, prompt)
	if err != nil {
		return domain.RawAnswer{}, err
	}
	if ai.IsRefusal(text) {
		slog.Info("chat reply looks like a refusal; re-asking", slog.String("provider", string(a.id)))
		again, rerr := a.complete(ctx, a.prompts.RefusalAlternate+question)
		if rerr != nil {
			slog.Warn("refusal re-ask failed; keeping first reply",
				slog.String("provider", string(a.id)),
				slog.Any("error", rerr))
		} else {
			text = again
		}
	}
	return domain.RawAnswer{Provider: a.id, Text: text, ReceivedAt: time.Now()}, nil
}

func (a *Adapter) prepare(question string) string {
	if a.id == domain.ProviderGPT4o && strings.Contains(question, config.DefaultHumanRightsToken) {
		return a.prompts.HumanRightsHint + question
	}
	return question
}

func (a *Adapter) complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	observability.AddPromptTokens(string(a.id), a.tokens.Estimate(prompt, a.model))
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	observability.ObserveProviderCall(string(a.id), "chat", time.Since(start))
	if err != nil {
		// go-openai wraps undecodable non-2xx bodies in a RequestError whose
		// cause is a json error; those are HTTP failures, not malformed replies.
		if httpStatus(err) < 400 && isMalformed(err) {
			slog.Warn("chat response malformed; treating as empty answer",
				slog.String("provider", string(a.id)),
				slog.Any("error", err))
			return "", nil
		}
		return "", a.classify(err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("chat response has no choices", slog.String("provider", string(a.id)))
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isMalformed(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	return errors.As(err, &syn) || errors.As(err, &typ) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// classify maps a go-openai error onto the provider failure taxonomy.
func (a *Adapter) classify(err error) error {
	pe := &domain.ProviderError{Provider: a.id, Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		pe.Code = fmt.Sprint(apiErr.Code)
		if apiErr.Code == nil {
			pe.Code = apiErr.Type
		}
		pe.Message = apiErr.Message
		pe.Class = classFor(apiErr.HTTPStatusCode, apiErr.Type+" "+pe.Code+" "+apiErr.Message)
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
		pe.Message = reqErr.Error()
		pe.Class = classFor(reqErr.HTTPStatusCode, pe.Message)
	default:
		pe.Message = err.Error()
		pe.Class = domain.ClassifyFailure(err)
	}
	return pe
}

func classFor(status int, detail string) domain.FailureClass {
	if strings.Contains(strings.ToLower(detail), "insufficient_quota") {
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
