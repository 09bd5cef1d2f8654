package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/services/sentiment"
)

var classifyFlags struct {
	in           string
	out          string
	provider     string
	titleCol     string
	concurrency  int
	maxRetries   int
	noCheckpoint bool
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label headlines positive, neutral or negative with a remote model or the lexicon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runner, err := a.SentimentRunner(ctx, classifyFlags.provider)
		if err != nil {
			return err
		}

		opts := sentiment.OptionsFromConfig(a.Config)
		opts.InputPath = firstNonEmpty(classifyFlags.in, opts.InputPath)
		opts.OutputPath = firstNonEmpty(classifyFlags.out, opts.OutputPath)
		opts.TitleCol = firstNonEmpty(classifyFlags.titleCol, opts.TitleCol)
		if classifyFlags.concurrency > 0 {
			opts.Concurrency = classifyFlags.concurrency
		}
		if cmd.Flags().Changed("max-retries") {
			opts.MaxRetries = classifyFlags.maxRetries
		}
		if classifyFlags.noCheckpoint {
			opts.Checkpoint = false
		}

		report, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote: %s\n", report.OutputPath)
		for _, l := range models.Labels {
			fmt.Fprintf(out, "  %-8s %s\n", l, humanize.Comma(int64(report.Counts[l])))
		}
		if n := report.Counts[models.LabelUnknown]; n > 0 {
			fmt.Fprintf(out, "  %-8s %s\n", models.LabelUnknown, humanize.Comma(int64(n)))
		}
		if report.Failed > 0 {
			fmt.Fprintf(out, "%s rows failed after retries; rerun to retry only those rows\n", humanize.Comma(int64(report.Failed)))
		}
		return nil
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyFlags.in, "in", "", "Input CSV with a title column")
	f.StringVar(&classifyFlags.out, "out", "", "Output CSV with the sentiment column added")
	f.StringVar(&classifyFlags.provider, "provider", "", "gemini, openai or lexicon")
	f.StringVar(&classifyFlags.titleCol, "title-col", "", "Name of the headline column")
	f.IntVar(&classifyFlags.concurrency, "concurrency", 0, "Headlines classified at once")
	f.IntVar(&classifyFlags.maxRetries, "max-retries", 0, "Retries per headline after a failed call")
	f.BoolVar(&classifyFlags.noCheckpoint, "no-checkpoint", false, "Do not record or resume progress")
}
