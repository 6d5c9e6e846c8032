package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

func TestVerdicts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want domain.NormalizedAnswer
	}{
		{"mixed with unrecognized line", "1. Yes\n2. No\n3. maybe", domain.NormalizedAnswer{domain.VerdictYes, domain.VerdictNo}},
		{"empty", "", domain.NormalizedAnswer{}},
		{"case insensitive", "YES\nnO", domain.NormalizedAnswer{domain.VerdictYes, domain.VerdictNo}},
		{"yes wins over no on same line", "No, yes", domain.NormalizedAnswer{domain.VerdictYes}},
		{"substring no", "I cannot tell", domain.NormalizedAnswer{domain.VerdictNo}},
		{"crlf", "Yes\r\nNo\r\n", domain.NormalizedAnswer{domain.VerdictYes, domain.VerdictNo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verdicts(tt.raw))
		})
	}
}

func TestVerdicts_Deterministic(t *testing.T) {
	t.Parallel()
	raw := "1. Yes\n2. no\n3. ?\n4. yes"
	first := Verdicts(raw)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Verdicts(raw))
	}
}

func TestFallbackVerdicts(t *testing.T) {
	t.Parallel()
	q := "Answer these:\n1. Is data encrypted?\n2. Is consent logged?\nthanks"
	assert.Equal(t, domain.NormalizedAnswer{domain.VerdictYes, domain.VerdictYes}, FallbackVerdicts(q))
	assert.Empty(t, FallbackVerdicts("no numbers here"))
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	q := "1. a\n2. b\n3. c"
	assert.Equal(t, domain.NormalizedAnswer{domain.VerdictNo}, Normalize("No", q))
	assert.Len(t, Normalize("???", q), 3)
}

func TestFormatVerdicts(t *testing.T) {
	t.Parallel()
	v := domain.NormalizedAnswer{domain.VerdictYes, domain.VerdictNo, domain.VerdictUnknown}
	assert.Equal(t, "Yes\nNo\nN/A", FormatVerdicts(v))
	assert.Equal(t, "", FormatVerdicts(nil))
	assert.Equal(t, v[:2], Verdicts(FormatVerdicts(v[:2])))
}
