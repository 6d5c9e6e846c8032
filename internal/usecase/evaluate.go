package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/dispatch"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/normalize"
	obsctx "github.com/fairyhunter13/ai-ethics-evaluator/internal/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/scoring"
)

// EvaluateService scores QnA items per category, either by sentiment or by
// comparing model verdicts with reference answers.
type EvaluateService struct {
	Answers   *AnswerService
	Sentiment domain.SentimentBridge
	Pool      *dispatch.Pool
	// Allowed restricts comparison scoring to these categories. Empty allows all.
	Allowed []string
	// Keywords resolves {placeholder} tokens in questions. Optional.
	Keywords domain.KeywordSource

	validate *validator.Validate
}

// NewEvaluateService constructs an EvaluateService with its dependencies.
func NewEvaluateService(answers *AnswerService, sentiment domain.SentimentBridge, pool *dispatch.Pool, allowed []string) *EvaluateService {
	return &EvaluateService{
		Answers:   answers,
		Sentiment: sentiment,
		Pool:      pool,
		Allowed:   allowed,
		validate:  validator.New(),
	}
}

func (s *EvaluateService) validateItems(op string, items []domain.QnAItem) error {
	v := s.validate
	if v == nil {
		v = validator.New()
	}
	for i, it := range items {
		if err := v.Struct(it); err != nil {
			return fmt.Errorf("op=usecase.%s: %w: item %d: %v", op, domain.ErrInvalidArgument, i, err)
		}
	}
	return nil
}

func withRun(ctx context.Context) context.Context {
	if obsctx.RunIDFromContext(ctx) != "" {
		return ctx
	}
	return obsctx.ContextWithRunID(ctx, obsctx.NewRunID())
}

// SentimentScores scores every item's answer with the sentiment bridge and
// returns the per-category pass ratio. Items without a stored answer are
// answered by provider first when one is given. An item whose answer or
// scoring fails is dropped from its category, exactly like an invalid one.
func (s *EvaluateService) SentimentScores(ctx context.Context, provider domain.ProviderID, items []domain.QnAItem) (map[string]float64, error) {
	if err := s.validateItems("SentimentScores", items); err != nil {
		return nil, err
	}
	ctx = withRun(ctx)
	lg := obsctx.LoggerFromContext(ctx)

	sizes := map[string]int{}
	for _, it := range items {
		sizes[it.Category]++
	}
	counters := make(map[string]*scoring.CategoryCounter, len(sizes))
	for cat, n := range sizes {
		counters[cat] = scoring.NewCategoryCounter(cat, n)
	}

	futures := make([]*dispatch.Future[struct{}], 0, len(items))
	for _, it := range items {
		c := counters[it.Category]
		f, err := dispatch.SubmitOrRun(ctx, s.Pool, "sentiment", func(ctx context.Context) (struct{}, error) {
			s.scoreSentiment(ctx, provider, it, c)
			return struct{}{}, nil
		})
		if err != nil {
			lg.Error("sentiment task not scheduled", slog.String("category", it.Category), slog.Any("error", err))
			c.MarkFailed()
			continue
		}
		futures = append(futures, f)
	}
	if _, err := dispatch.AwaitAll(ctx, futures); err != nil {
		return nil, fmt.Errorf("op=usecase.SentimentScores: %w", err)
	}

	out := make(map[string]float64, len(counters))
	for cat, c := range counters {
		out[cat] = c.Score()
		observability.ObserveCategoryScore("sentiment", out[cat])
	}
	lg.Info("sentiment evaluation finished", slog.Int("items", len(items)), slog.Int("categories", len(out)))
	return out, nil
}

func (s *EvaluateService) scoreSentiment(ctx context.Context, provider domain.ProviderID, it domain.QnAItem, c *scoring.CategoryCounter) {
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("category", it.Category), slog.String("item", it.ID))
	text := it.Answer
	if text == "" && provider != "" && s.Answers != nil {
		res := s.Answers.Answer(ctx, provider, ResolvePlaceholders(ctx, it.Question, s.Keywords, nil))
		if !res.OK() {
			lg.Warn("answer failed; item excluded", slog.Any("error", res.Err))
			c.MarkFailed()
			return
		}
		text = res.Text
	}

	r, err := s.Sentiment.Score(ctx, text)
	switch {
	case err != nil:
		lg.Warn("sentiment scoring failed; item excluded", slog.Any("error", err))
		c.MarkFailed()
	case r == nil || !r.Valid:
		c.MarkInvalid()
	case !r.EthicalPass:
		c.MarkPositive()
	}
}

// CompareScores answers every allowed item with provider, normalizes the
// reply and compares it positionally with the item's reference answer.
// Scores are returned per category in first-appearance order. Failed items
// are logged and excluded from both sides of their category.
func (s *EvaluateService) CompareScores(ctx context.Context, provider domain.ProviderID, items []domain.QnAItem) ([]domain.StandardScore, error) {
	if err := s.validateItems("CompareScores", items); err != nil {
		return nil, err
	}
	ctx = withRun(ctx)
	lg := obsctx.LoggerFromContext(ctx).With(slog.String("provider", string(provider)))

	allowed := map[string]bool{}
	for _, c := range s.Allowed {
		allowed[c] = true
	}

	seen := map[string]bool{}
	var (
		order   []string
		cats    []string
		futures []*dispatch.Future[domain.ComparisonResult]
		skipped int
	)
	for _, it := range items {
		if len(allowed) > 0 && !allowed[it.Category] {
			skipped++
			continue
		}
		if !seen[it.Category] {
			seen[it.Category] = true
			order = append(order, it.Category)
		}
		f, err := dispatch.SubmitOrRun(ctx, s.Pool, "compare", func(ctx context.Context) (domain.ComparisonResult, error) {
			verdicts, res := s.Answers.AnswerVerdicts(ctx, provider, ResolvePlaceholders(ctx, it.Question, s.Keywords, nil))
			if !res.OK() {
				return domain.ComparisonResult{}, res.Err
			}
			return scoring.Compare(normalize.Verdicts(it.Reference), verdicts), nil
		})
		if err != nil {
			lg.Error("compare task not scheduled", slog.String("category", it.Category), slog.Any("error", err))
			continue
		}
		cats = append(cats, it.Category)
		futures = append(futures, f)
	}
	if skipped > 0 {
		lg.Debug("items outside the allowed categories skipped", slog.Int("count", skipped))
	}

	results, err := dispatch.AwaitAll(ctx, futures)
	if err != nil {
		return nil, fmt.Errorf("op=usecase.CompareScores: %w", err)
	}
	byCat := map[string][]domain.ComparisonResult{}
	for i, r := range results {
		if r.Err != nil {
			lg.Warn("item excluded from comparison", slog.String("category", cats[i]), slog.Any("error", r.Err))
			continue
		}
		byCat[cats[i]] = append(byCat[cats[i]], r.Value)
	}

	scores := make([]domain.StandardScore, 0, len(order))
	for _, cat := range order {
		sc := scoring.NewStandardScore(cat, scoring.Merge(byCat[cat]...))
		observability.ObserveCategoryScore("compare", sc.Score)
		scores = append(scores, sc)
	}
	return scores, nil
}

// CompareAllProviders runs CompareScores for every provider concurrently.
func (s *EvaluateService) CompareAllProviders(ctx context.Context, providers []domain.ProviderID, items []domain.QnAItem) (map[domain.ProviderID][]domain.StandardScore, error) {
	ctx = withRun(ctx)
	out := make(map[domain.ProviderID][]domain.StandardScore, len(providers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range providers {
		g.Go(func() error {
			scores, err := s.CompareScores(gctx, p, items)
			if err != nil {
				return err
			}
			mu.Lock()
			out[p] = scores
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
