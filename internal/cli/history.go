package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gameshelf/internal/history"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		latest bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded process runs, newest first",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return userErrorf("--limit must not be negative")
			}
			hist, err := history.Open(a.layout.History())
			if err != nil {
				return err
			}
			defer hist.Close()

			if latest {
				return a.printLatestRun(cmd, hist)
			}
			runs, err := hist.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []history.Run{}
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), runs)
			}
			printRunTable(cmd, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs (0 = all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "show the most recent run in detail")
	return cmd
}

func (a *app) printLatestRun(cmd *cobra.Command, hist *history.Store) error {
	r, err := hist.Latest(cmd.Context())
	if errors.Is(err, history.ErrEmpty) {
		return userErrorf("no runs recorded; run \"gameshelf process\" first")
	}
	if err != nil {
		return err
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), r)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:           %s\n", r.ID)
	fmt.Fprintf(out, "Status:        %s\n", r.Status)
	fmt.Fprintf(out, "Started:       %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration:      %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(out, "Games:         %d\n", r.Games)
	fmt.Fprintf(out, "Plays:         %d\n", r.Plays)
	fmt.Fprintf(out, "New games:     %d\n", r.Appended)
	fmt.Fprintf(out, "Uncategorized: %d\n", r.Uncategorized)
	if r.Error != "" {
		fmt.Fprintf(out, "Error:         %s\n", r.Error)
	}
	if len(r.Categories) == 0 {
		return nil
	}

	labels := make([]string, 0, len(r.Categories))
	for c := range r.Categories {
		labels = append(labels, c)
	}
	sort.Strings(labels)
	rows := make([][]string, 0, len(labels))
	for _, c := range labels {
		name := c
		if name == "" {
			name = "(uncategorized)"
		}
		rows = append(rows, []string{name, strconv.Itoa(r.Categories[c])})
	}
	fmt.Fprintln(out)
	printTable(out, []string{"CATEGORY", "GAMES"}, rows)
	return nil
}

func printRunTable(cmd *cobra.Command, runs []history.Run) {
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		shortID := r.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		rows = append(rows, []string{
			shortID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Status,
			strconv.Itoa(r.Games),
			strconv.Itoa(r.Plays),
			strconv.Itoa(r.Appended),
			strconv.Itoa(r.Uncategorized),
		})
	}
	printTable(out, []string{"RUN", "STARTED", "STATUS", "GAMES", "PLAYS", "NEW", "UNCATEGORIZED"}, rows)
	for _, r := range runs {
		if r.Error != "" {
			fmt.Fprintf(out, "%s: %s\n", r.ID[:min(8, len(r.ID))], r.Error)
		}
	}
}
