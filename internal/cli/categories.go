package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gameshelf/internal/catstore"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

func newCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect and edit the per-game category table",
	}
	cmd.AddCommand(newCategoriesListCmd(a))
	cmd.AddCommand(newCategoriesSetCmd(a))
	return cmd
}

func newCategoriesListCmd(a *app) *cobra.Command {
	var uncategorized bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List games and their categories",
		Example: `  gameshelf categories list
  gameshelf categories list --uncategorized
  gameshelf categories list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			records := store.Records()
			if uncategorized {
				records = store.Uncategorized()
			}
			if records == nil {
				records = []types.CategoryRecord{}
			}

			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), records)
			}
			printCategoryTable(cmd, records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only games with an empty category")
	return cmd
}

func printCategoryTable(cmd *cobra.Command, records []types.CategoryRecord) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No games found.")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.GameID, truncate(r.Name, 40), r.Category})
	}
	printTable(out, []string{"GAME_ID", "NAME", "CATEGORY"}, rows)
	fmt.Fprintf(out, "Total: %d game(s)\n", len(records))
}

func newCategoriesSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <game_id> <category>",
		Short: "Assign a category to a game",
		Long: `Set changes the category of one game in game_categories.csv. Pass an
empty string to clear it. Run "gameshelf process" afterwards to refresh
the merged data used by reports.`,
		Example: `  gameshelf categories set 13 Strategy
  gameshelf categories set 13 ""`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, category := args[0], args[1]
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			if err := store.SetCategory(id, category); err != nil {
				return err
			}
			if err := catstore.Save(a.layout.CategoryStore(), store); err != nil {
				return types.NewStageError(types.StageSaveStore, a.layout.CategoryStore(), err)
			}
			a.log.Info("category set", zap.String("game_id", id), zap.String("category", category))

			rec, _ := store.Lookup(id)
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now in category %q\n", rec.Name, rec.GameID, rec.Category)
			return nil
		},
	}
}

// loadStore loads the category table, which must already exist.
func (a *app) loadStore() (*catstore.Store, error) {
	path := a.layout.CategoryStore()
	store, err := catstore.Load(path)
	if err != nil {
		return nil, types.NewStageError(types.StageLoadStore, path, err)
	}
	if store.Len() == 0 {
		a.log.Debug("category table is empty", zap.String("path", path))
	}
	return store, nil
}
