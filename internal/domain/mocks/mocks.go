// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

// MockProviderAdapter is a mock of domain.ProviderAdapter.
type MockProviderAdapter struct {
	mock.Mock
}

// NewMockProviderAdapter creates a mock and registers expectation assertions on cleanup.
func NewMockProviderAdapter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProviderAdapter {
	m := &MockProviderAdapter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ID implements domain.ProviderAdapter.
func (m *MockProviderAdapter) ID() domain.ProviderID {
	args := m.Called()
	return args.Get(0).(domain.ProviderID)
}

// Call implements domain.ProviderAdapter.
func (m *MockProviderAdapter) Call(ctx context.Context, question string) (domain.RawAnswer, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(domain.RawAnswer), args.Error(1)
}

// MockSentimentBridge is a mock of domain.SentimentBridge.
type MockSentimentBridge struct {
	mock.Mock
}

// NewMockSentimentBridge creates a mock and registers expectation assertions on cleanup.
func NewMockSentimentBridge(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSentimentBridge {
	m := &MockSentimentBridge{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Score implements domain.SentimentBridge.
func (m *MockSentimentBridge) Score(ctx context.Context, text string) (*domain.SentimentResult, error) {
	args := m.Called(ctx, text)
	var res *domain.SentimentResult
	if v := args.Get(0); v != nil {
		res = v.(*domain.SentimentResult)
	}
	return res, args.Error(1)
}

// MockKeywordSource is a mock of domain.KeywordSource.
type MockKeywordSource struct {
	mock.Mock
}

// NewMockKeywordSource creates a mock and registers expectation assertions on cleanup.
func NewMockKeywordSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockKeywordSource {
	m := &MockKeywordSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Keywords implements domain.KeywordSource.
func (m *MockKeywordSource) Keywords(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	var out []string
	if v := args.Get(0); v != nil {
		out = v.([]string)
	}
	return out, args.Error(1)
}
