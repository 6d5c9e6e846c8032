package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/app"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/normalize"
)

func newAnswerCmd(opts *rootOptions) *cobra.Command {
	var (
		provider string
		verdicts bool
	)
	cmd := &cobra.Command{
		Use:   "answer [question]",
		Short: "Ask one provider a question with retry and fallback",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseProviderID(provider)
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")
			return runEngine(opts, false, func(ctx context.Context, e *app.Engine) error {
				out := cmd.OutOrStdout()
				if verdicts {
					v, res := e.Answers.AnswerVerdicts(ctx, id, question)
					if res.Err != nil {
						return res.Err
					}
					fmt.Fprintf(out, "provider: %s (attempts %d, fallback %t)\n", res.Provider, res.Attempts, res.FellBack)
					fmt.Fprintln(out, normalize.FormatVerdicts(v))
					return nil
				}
				f, err := e.Answers.AnswerAsync(ctx, e.Pool, id, question)
				if err != nil {
					return err
				}
				res, err := f.Await(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "provider: %s (attempts %d, fallback %t)\n", res.Provider, res.Attempts, res.FellBack)
				fmt.Fprintln(out, res.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", string(domain.ProviderGPT4o), "provider id")
	cmd.Flags().BoolVar(&verdicts, "verdicts", false, "print the normalized YES/NO sequence instead of the raw text")
	return cmd
}
