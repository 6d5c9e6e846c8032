package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrTransient         = errors.New("transient provider failure")
	ErrQuotaExhausted    = errors.New("provider quota exhausted")
	ErrPermanent         = errors.New("permanent provider failure")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrCircuitOpen       = errors.New("circuit open")
	ErrRetriesExhausted  = errors.New("all retries and fallbacks exhausted")
	ErrSubprocessFailure = errors.New("sentiment subprocess failure")
)

// ProviderID identifies a registered LLM backend.
type ProviderID string

// Known providers. The chat-completion family shares one adapter
// implementation and differs only by model name.
const (
	ProviderGPT35  ProviderID = "gpt-3.5-turbo"
	ProviderGPT4   ProviderID = "gpt-4"
	ProviderGPT4o  ProviderID = "gpt-4o"
	ProviderGemini ProviderID = "gemini"
	ProviderGroq   ProviderID = "groq"
)

// ParseProviderID accepts both the model name and the legacy enum spelling
// (GPT_3_5, GPT_4, GPT_4o, GEMINI).
func ParseProviderID(s string) (ProviderID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpt-3.5-turbo", "gpt_3_5", "gpt-3.5":
		return ProviderGPT35, nil
	case "gpt-4", "gpt_4":
		return ProviderGPT4, nil
	case "gpt-4o", "gpt_4o":
		return ProviderGPT4o, nil
	case "gemini":
		return ProviderGemini, nil
	case "groq":
		return ProviderGroq, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Question is an immutable prompt plus optional category tags.
// Text may contain {placeholder} tokens that are resolved before dispatch.
type Question struct {
	Text      string
	Category  string
	Standards []string
}

// ProviderCall is created per dispatch and discarded after completion.
type ProviderCall struct {
	Provider   ProviderID
	Question   string
	Timeout    time.Duration
	MaxRetries int
}

// RawAnswer is the output of a successful adapter call.
type RawAnswer struct {
	Provider   ProviderID
	Text       string
	ReceivedAt time.Time
}

// Verdict is a normalized Yes/No judgment. Never the empty string.
type Verdict string

const (
	VerdictYes     Verdict = "YES"
	VerdictNo      Verdict = "NO"
	VerdictUnknown Verdict = "UNKNOWN"
)

// NormalizedAnswer holds one verdict per detected item of a reply.
// Its length is not guaranteed to match the question's item count.
type NormalizedAnswer []Verdict

// SentimentInvalid is the sentinel compound score for "could not be judged".
const SentimentInvalid = -2.0

// SentimentResult is the outcome of one sentiment-analysis call.
type SentimentResult struct {
	CompoundScore float64
	EthicalPass   bool
	Valid         bool
}

// NewSentimentResult builds a result from a compound score, applying the
// invalid sentinel and the negative-is-pass polarity.
func NewSentimentResult(score float64) SentimentResult {
	if score == SentimentInvalid {
		return SentimentResult{CompoundScore: score}
	}
	return SentimentResult{CompoundScore: score, EthicalPass: score < 0, Valid: true}
}

// ComparisonResult is the positional agreement between two verdict sequences.
// Invariants: 0 <= Matching <= Total; Score in [0,1]; Score == 0 when Total == 0.
type ComparisonResult struct {
	Total    int
	Matching int
	Score    float64
}

// StandardScore is the aggregated score of one category for one evaluation run.
type StandardScore struct {
	Category  string
	Score     float64
	Formatted string
	Matching  int
	Total     int
}

// TotalScore sums category scores into one "x/y" ratio.
type TotalScore struct {
	Formatted string
	Ratio     float64
}

// QnAItem is one reference question with its stored answers.
// Reference is the answer text kept by the CRUD layer; Answer is an optional
// previously generated model answer used by the sentiment mode.
type QnAItem struct {
	ID        string `yaml:"id" json:"id"`
	Category  string `yaml:"category" json:"category" validate:"required"`
	Question  string `yaml:"question" json:"question" validate:"required"`
	Reference string `yaml:"reference" json:"reference"`
	Answer    string `yaml:"answer" json:"answer"`
}

// AnswerResult is the error-tagged outcome of a logical answer request.
// Err is only ever ErrRetriesExhausted (possibly wrapped) or nil.
type AnswerResult struct {
	Requested ProviderID
	Provider  ProviderID
	Text      string
	Attempts  int
	FellBack  bool
	Err       error
}

// OK reports whether an answer (possibly empty) was obtained.
func (r AnswerResult) OK() bool { return r.Err == nil }

// Ports

// ProviderAdapter translates a question into one provider's wire format and
// extracts the first candidate's text. Timeouts come from ctx.
type ProviderAdapter interface {
	ID() ProviderID
	Call(ctx Context, question string) (RawAnswer, error)
}

// SentimentBridge scores a text. A nil result with nil error means the text
// was empty and no analysis ran.
type SentimentBridge interface {
	Score(ctx Context, text string) (*SentimentResult, error)
}

// KeywordSource resolves a placeholder name into candidate keywords.
type KeywordSource interface {
	Keywords(ctx Context, name string) ([]string, error)
}

// Context is an alias so ports read the same across packages.
type Context = context.Context
