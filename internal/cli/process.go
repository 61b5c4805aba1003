package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gameshelf/internal/history"
	"github.com/mesh-intelligence/gameshelf/internal/pipeline"
)

func newProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Merge the fetched sources with the category table",
		Long: `Process parses the fetched collection and play history, appends every new
game to game_categories.csv with an empty category, and writes
games_last_played.csv ordered by category and last play date. Existing
categories are never changed; edit them with "gameshelf categories set"
or in the CSV file directly.`,
		Args: noArgs,
		RunE: a.runProcess,
	}
}

func (a *app) runProcess(cmd *cobra.Command, args []string) error {
	hist, err := history.Open(a.layout.History())
	if err != nil {
		return err
	}
	defer hist.Close()

	sum, err := pipeline.Process(cmd.Context(), pipeline.Options{
		Layout:  a.layout,
		Logger:  a.log,
		Metrics: a.metrics,
		History: hist,
	})
	if err != nil {
		return err
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), sum)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d game(s) and %d play(s)\n", sum.Games, sum.Plays)
	fmt.Fprintf(out, "  new games added to %s: %d\n", sum.StorePath, sum.Appended)
	fmt.Fprintf(out, "  merged rows written to %s\n", sum.MergedPath)
	if n := len(sum.Uncategorized); n > 0 {
		fmt.Fprintf(out, "  %d game(s) have no category; see \"gameshelf categories list --uncategorized\"\n", n)
	}
	return nil
}
