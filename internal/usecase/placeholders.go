package usecase

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"regexp"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	obsctx "github.com/fairyhunter13/ai-ethics-evaluator/internal/observability"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// KeywordMap is an in-memory domain.KeywordSource.
type KeywordMap map[string][]string

// Keywords returns the keywords stored under name.
func (m KeywordMap) Keywords(_ context.Context, name string) ([]string, error) {
	return m[name], nil
}

// ResolvePlaceholders replaces each {name} token, left to right, with a
// random keyword for name. A nil source, unknown names, empty keyword lists
// and lookup errors leave the bare name. pick(n) must return a value in
// [0,n); nil uses math/rand/v2.
func ResolvePlaceholders(ctx context.Context, text string, src domain.KeywordSource, pick func(n int) int) string {
	if pick == nil {
		pick = rand.IntN
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if src == nil {
			return name
		}
		kws, err := src.Keywords(ctx, name)
		if err != nil {
			obsctx.LoggerFromContext(ctx).Warn("keyword lookup failed; keeping placeholder name",
				slog.String("name", name), slog.Any("error", err))
			return name
		}
		if len(kws) == 0 {
			return name
		}
		return kws[pick(len(kws))]
	})
}
