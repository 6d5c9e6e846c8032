package scoring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

var (
	Y = domain.VerdictYes
	N = domain.VerdictNo
)

func TestCompare(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		ref, mdl  domain.NormalizedAnswer
		wantTotal int
		wantMatch int
		wantScore float64
	}{
		{"scenario", domain.NormalizedAnswer{Y, N, Y}, domain.NormalizedAnswer{Y, Y, Y}, 3, 2, 0.667},
		{"empty reference", nil, domain.NormalizedAnswer{Y}, 0, 0, 0},
		{"both empty", nil, nil, 0, 0, 0},
		{"model shorter", domain.NormalizedAnswer{Y, N, Y}, domain.NormalizedAnswer{Y}, 1, 1, 1},
		{"case insensitive", domain.NormalizedAnswer{"yes"}, domain.NormalizedAnswer{Y}, 1, 1, 1},
		{"all mismatch", domain.NormalizedAnswer{N, N}, domain.NormalizedAnswer{Y, Y}, 2, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.ref, tt.mdl)
			assert.Equal(t, tt.wantTotal, got.Total)
			assert.Equal(t, tt.wantMatch, got.Matching)
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func TestMergeAndTotal(t *testing.T) {
	t.Parallel()
	a := NewStandardScore("프라이버시", Merge(
		domain.ComparisonResult{Total: 3, Matching: 2},
		domain.ComparisonResult{Total: 2, Matching: 2},
	))
	assert.Equal(t, "4/5", a.Formatted)
	assert.InDelta(t, 0.8, a.Score, 1e-9)

	b := NewStandardScore("책임성", Merge())
	assert.Equal(t, "0/0", b.Formatted)
	assert.Equal(t, 0.0, b.Score)

	c := NewStandardScore("투명성", domain.ComparisonResult{Total: 1, Matching: 0})
	total := Total([]domain.StandardScore{a, b, c})
	assert.Equal(t, "4/6", total.Formatted)
	assert.Equal(t, 0.67, total.Ratio)

	assert.Equal(t, domain.TotalScore{Formatted: "0/0", Ratio: 0}, Total(nil))
}

func TestCategoryCounter(t *testing.T) {
	t.Parallel()

	c := NewCategoryCounter("안전성", 4)
	c.MarkPositive()
	assert.InDelta(t, 0.75, c.Score(), 1e-9)

	c.MarkFailed()
	initial, adjusted := c.Counts()
	assert.Equal(t, int64(3), initial)
	assert.Equal(t, int64(2), adjusted)
}

func TestCategoryCounter_SingleInvalidItemScoresZero(t *testing.T) {
	t.Parallel()
	c := NewCategoryCounter("책임성", 1)
	c.MarkInvalid()
	initial, adjusted := c.Counts()
	assert.Equal(t, int64(0), initial)
	assert.Equal(t, int64(0), adjusted)
	assert.Equal(t, 0.0, c.Score())
}

func TestCategoryCounter_InvalidItemsAreNeutralVsAbsent(t *testing.T) {
	t.Parallel()
	// Two passing items plus two invalid ones must score like the two alone.
	withInvalid := NewCategoryCounter("x", 4)
	withInvalid.MarkInvalid()
	withInvalid.MarkInvalid()

	absent := NewCategoryCounter("x", 2)
	assert.Equal(t, absent.Score(), withInvalid.Score())

	mixed := NewCategoryCounter("x", 3)
	mixed.MarkPositive()
	mixed.MarkInvalid()
	mixedAbsent := NewCategoryCounter("x", 2)
	mixedAbsent.MarkPositive()
	assert.InDelta(t, mixedAbsent.Score(), mixed.Score(), 1e-9)
}

func TestCategoryCounter_Concurrent(t *testing.T) {
	t.Parallel()
	c := NewCategoryCounter("x", 1000)
	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				c.MarkPositive()
			case 1:
				c.MarkInvalid()
			}
		}(i)
	}
	wg.Wait()
	initial, adjusted := c.Counts()
	assert.Equal(t, int64(1000-333), initial)
	assert.Equal(t, int64(1000-334-333), adjusted)
}
