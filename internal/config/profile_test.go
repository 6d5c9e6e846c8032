package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

func TestLoadProfile_EmptyPathReturnsDefault(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Len(t, p.Standards, 10)
	assert.Equal(t, DefaultGeminiPrefix, p.Prompts.GeminiPrefix)

	allowed := p.AllowedCategories()
	assert.Len(t, allowed, 7)
	assert.NotContains(t, allowed, "공공성")
	assert.NotContains(t, allowed, "연대성")
	assert.NotContains(t, allowed, "침해금지")
}

func TestLoadProfile_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	body := `standards: [a, b, c]
excluded_categories: [b]
fallback_chain:
  gpt-4o: [groq, gemini]
prompts:
  gemini_prefix: "Answer:\n"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, p.AllowedCategories())
	assert.Equal(t, "Answer:\n", p.Prompts.GeminiPrefix)
	assert.Equal(t, DefaultRefusalPrompt, p.Prompts.RefusalAlternate)

	chains, err := p.Chains()
	require.NoError(t, err)
	assert.Equal(t, []domain.ProviderID{domain.ProviderGroq, domain.ProviderGemini}, chains[domain.ProviderGPT4o])
}

func TestLoadProfile_Errors(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("standards: [unterminated"), 0o600))
	_, err = LoadProfile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=config.LoadProfile")
}

func TestConfig_ResolveProfile_EnvOverridesProfile(t *testing.T) {
	cfg := Config{EvalAllowedCategories: []string{"책임성"}}
	_, allowed, chains, err := cfg.ResolveProfile()
	require.NoError(t, err)
	assert.Equal(t, []string{"책임성"}, allowed)
	assert.Equal(t, []domain.ProviderID{domain.ProviderGemini}, chains[domain.ProviderGPT4o])
}
