// Package normalize turns free-text provider replies into Yes/No verdicts.
package normalize

import (
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/pkg/textx"
)

var numberedItem = regexp.MustCompile(`\d+\.`)

// Verdicts extracts one verdict per line of raw. "yes" is checked before "no";
// lines containing neither are dropped.
func Verdicts(raw string) domain.NormalizedAnswer {
	out := domain.NormalizedAnswer{}
	for _, line := range textx.Lines(raw) {
		if v, ok := lineVerdict(line); ok {
			out = append(out, v)
		}
	}
	return out
}

func lineVerdict(line string) (domain.Verdict, bool) {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "yes"):
		return domain.VerdictYes, true
	case strings.Contains(l, "no"):
		return domain.VerdictNo, true
	}
	return "", false
}

// FallbackVerdicts answers YES for every numbered line of question.
func FallbackVerdicts(question string) domain.NormalizedAnswer {
	out := domain.NormalizedAnswer{}
	for _, line := range textx.Lines(question) {
		if numberedItem.MatchString(line) {
			out = append(out, domain.VerdictYes)
		}
	}
	return out
}

// Normalize returns Verdicts(raw), or FallbackVerdicts(question) when raw
// yields nothing.
func Normalize(raw, question string) domain.NormalizedAnswer {
	if v := Verdicts(raw); len(v) > 0 {
		return v
	}
	return FallbackVerdicts(question)
}

// FormatVerdicts renders verdicts as "Yes\nNo\n..." answer text.
func FormatVerdicts(v domain.NormalizedAnswer) string {
	parts := make([]string, 0, len(v))
	for _, x := range v {
		switch x {
		case domain.VerdictYes:
			parts = append(parts, "Yes")
		case domain.VerdictNo:
			parts = append(parts, "No")
		default:
			parts = append(parts, "N/A")
		}
	}
	return strings.Join(parts, "\n")
}
