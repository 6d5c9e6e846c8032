package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

type fakeAdapter struct {
	id    domain.ProviderID
	text  string
	err   error
	calls int
}

func (f *fakeAdapter) ID() domain.ProviderID { return f.id }

func (f *fakeAdapter) Call(_ context.Context, _ string) (domain.RawAnswer, error) {
	f.calls++
	if f.err != nil {
		return domain.RawAnswer{}, f.err
	}
	return domain.RawAnswer{Provider: f.id, Text: f.text}, nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r, err := NewRegistry(&fakeAdapter{id: domain.ProviderGemini}, &fakeAdapter{id: domain.ProviderGPT4o})
	require.NoError(t, err)

	assert.Equal(t, []domain.ProviderID{domain.ProviderGemini, domain.ProviderGPT4o}, r.IDs())
	assert.True(t, r.Has(domain.ProviderGemini))
	assert.False(t, r.Has(domain.ProviderGroq))

	a, err := r.Get(domain.ProviderGPT4o)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGPT4o, a.ID())

	_, err = r.Get(domain.ProviderGroq)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)

	err = r.Register(&fakeAdapter{id: domain.ProviderGemini})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.ErrorIs(t, r.Register(nil), domain.ErrInvalidArgument)
}

func TestIsRefusal(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRefusal("I'm sorry, but I cannot help with that."))
	assert.True(t, IsRefusal("I CAN'T ASSIST with this request"))
	assert.False(t, IsRefusal("1. Yes\n2. No"))
	assert.False(t, IsRefusal(""))
}
