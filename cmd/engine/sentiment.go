package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/app"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
)

type sentimentOutput struct {
	Analyzed      bool    `json:"analyzed"`
	CompoundScore float64 `json:"compound_score"`
	EthicalPass   bool    `json:"ethical_pass"`
	Valid         bool    `json:"valid"`
}

func toSentimentOutput(r *domain.SentimentResult) sentimentOutput {
	if r == nil {
		return sentimentOutput{}
	}
	return sentimentOutput{Analyzed: true, CompoundScore: r.CompoundScore, EthicalPass: r.EthicalPass, Valid: r.Valid}
}

func newSentimentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment [text]",
		Short: "Score a text with the sentiment subprocess and print JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return runEngine(opts, false, func(ctx context.Context, e *app.Engine) error {
				res, err := e.Bridge.Score(ctx, text)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(toSentimentOutput(res))
			})
		},
	}
}
