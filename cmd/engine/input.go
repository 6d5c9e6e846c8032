package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/usecase"
)

// evalInput is the YAML document read by the evaluate command.
type evalInput struct {
	Keywords usecase.KeywordMap `yaml:"keywords"`
	Items    []domain.QnAItem   `yaml:"items"`
}

func loadEvalInput(path string) (evalInput, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return evalInput{}, fmt.Errorf("op=loadEvalInput: %w", err)
	}
	// #nosec G304 -- input path is supplied by the operator on the command line
	content, err := os.ReadFile(absPath)
	if err != nil {
		return evalInput{}, fmt.Errorf("op=loadEvalInput: %w", err)
	}
	var in evalInput
	if err := yaml.Unmarshal(content, &in); err != nil {
		return evalInput{}, fmt.Errorf("op=loadEvalInput: parse %s: %w", absPath, err)
	}
	if len(in.Items) == 0 {
		return evalInput{}, fmt.Errorf("op=loadEvalInput: %s has no items: %w", absPath, domain.ErrInvalidArgument)
	}
	return in, nil
}
