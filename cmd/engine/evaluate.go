package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/app"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/scoring"
)

const (
	modeCompare   = "compare"
	modeSentiment = "sentiment"
)

func newEvaluateCmd(opts *rootOptions) *cobra.Command {
	var (
		mode      string
		input     string
		providers []string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score providers against a YAML question set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != modeCompare && mode != modeSentiment {
				return fmt.Errorf("unknown mode %q: %w", mode, domain.ErrInvalidArgument)
			}
			ids, err := parseProviders(providers)
			if err != nil {
				return err
			}
			in, err := loadEvalInput(input)
			if err != nil {
				return err
			}
			return runEngine(opts, false, func(ctx context.Context, e *app.Engine) error {
				if len(in.Keywords) > 0 {
					e.Evaluate.Keywords = in.Keywords
				}
				out := cmd.OutOrStdout()
				if mode == modeSentiment {
					for _, id := range ids {
						scores, err := e.Evaluate.SentimentScores(ctx, id, in.Items)
						if err != nil {
							return err
						}
						renderSentiment(out, id, scores)
					}
					return nil
				}
				all, err := e.Evaluate.CompareAllProviders(ctx, ids, in.Items)
				if err != nil {
					return err
				}
				for _, id := range ids {
					renderCompare(out, id, all[id])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", modeCompare, "scoring mode: compare or sentiment")
	cmd.Flags().StringVarP(&input, "input", "i", "", "YAML file with items and optional keywords")
	cmd.Flags().StringSliceVarP(&providers, "provider", "p", []string{string(domain.ProviderGPT4o)}, "provider id (repeatable)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func parseProviders(raw []string) ([]domain.ProviderID, error) {
	ids := make([]domain.ProviderID, 0, len(raw))
	for _, r := range raw {
		id, err := domain.ParseProviderID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no provider given: %w", domain.ErrInvalidArgument)
	}
	return ids, nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func renderCompare(w io.Writer, id domain.ProviderID, scores []domain.StandardScore) {
	fmt.Fprintf(w, "provider: %s (compare)\n", id)
	table := newTable(w, []string{"Category", "Score", "Ratio"})
	for _, s := range scores {
		table.Append([]string{s.Category, s.Formatted, fmt.Sprintf("%.2f", s.Score)})
	}
	total := scoring.Total(scores)
	table.SetFooter([]string{"Total", total.Formatted, fmt.Sprintf("%.2f", total.Ratio)})
	table.Render()
}

func renderSentiment(w io.Writer, id domain.ProviderID, scores map[string]float64) {
	fmt.Fprintf(w, "provider: %s (sentiment)\n", id)
	cats := make([]string, 0, len(scores))
	for c := range scores {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	table := newTable(w, []string{"Category", "Score"})
	for _, c := range cats {
		table.Append([]string{c, fmt.Sprintf("%.2f", scores[c])})
	}
	table.Render()
}
