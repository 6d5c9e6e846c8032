// Package sentiment runs the external sentiment-scoring script as a
// subprocess and decodes its single-line JSON result.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-ethics-evaluator/internal/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/pkg/textx"
)

// Options configures the bridge.
type Options struct {
	Interpreter string
	Script      string
	Timeout     time.Duration
	// MaxProcs caps concurrently running processes. <= 0 means 1.
	MaxProcs int
}

// Bridge implements domain.SentimentBridge.
type Bridge struct {
	interpreter string
	script      string
	timeout     time.Duration
	sem         *semaphore.Weighted
}

// New builds a bridge. Timeout defaults to 30s.
func New(o Options) *Bridge {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxProcs <= 0 {
		o.MaxProcs = 1
	}
	return &Bridge{
		interpreter: o.Interpreter,
		script:      o.Script,
		timeout:     o.Timeout,
		sem:         semaphore.NewWeighted(int64(o.MaxProcs)),
	}
}

type scriptOutput struct {
	Score *float64 `json:"average_compound_score"`
}

// Score runs the script on text. Empty text returns nil, nil without
// spawning anything. Control characters are stripped before the text is
// passed as an argument; surrounding whitespace is kept. A missing score key
// or the -2.0 sentinel yields an invalid result. Process or decode failures
// wrap domain.ErrSubprocessFailure.
func (b *Bridge) Score(ctx context.Context, text string) (*domain.SentimentResult, error) {
	text = textx.StripControl(text)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("op=sentiment.Score: %w", err)
	}
	defer b.sem.Release(1)

	ctx, span := observability.Tracer().Start(ctx, "sentiment.Score")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	res, err := b.run(ctx, text)
	switch {
	case err != nil:
		observability.RecordSentimentRun("error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "sentiment subprocess failed")
	case !res.Valid:
		observability.RecordSentimentRun("invalid")
	default:
		observability.RecordSentimentRun("ok")
		span.SetAttributes(attribute.Float64("sentiment.compound", res.CompoundScore))
	}
	return res, err
}

func (b *Bridge) run(ctx context.Context, text string) (*domain.SentimentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// #nosec G204 -- interpreter and script come from operator configuration
	cmd := exec.CommandContext(ctx, b.interpreter, b.script, text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	lg := obsctx.LoggerFromContext(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		lg.Warn("sentiment subprocess failed",
			slog.Any("error", err),
			slog.String("stderr", textx.Truncate(strings.TrimSpace(stderr.String()), 512)),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("op=sentiment.Score: %w: %w", domain.ErrSubprocessFailure, err)
	}

	var out scriptOutput
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		lg.Warn("sentiment output unparsable",
			slog.String("stdout", textx.Truncate(stdout.String(), 512)),
			slog.Any("error", err))
		return nil, fmt.Errorf("op=sentiment.Score: %w: decode output: %v", domain.ErrSubprocessFailure, err)
	}
	if out.Score == nil {
		return &domain.SentimentResult{CompoundScore: domain.SentimentInvalid}, nil
	}
	res := domain.NewSentimentResult(*out.Score)
	return &res, nil
}
