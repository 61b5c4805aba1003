// Package pipeline runs one linear process pass over the data directory:
// parse both raw sources, reconcile the category store, merge, then
// persist the store and the merged artifact.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/gameshelf/internal/catstore"
	"github.com/mesh-intelligence/gameshelf/internal/fetch"
	"github.com/mesh-intelligence/gameshelf/internal/history"
	"github.com/mesh-intelligence/gameshelf/internal/logger"
	"github.com/mesh-intelligence/gameshelf/internal/merge"
	"github.com/mesh-intelligence/gameshelf/internal/metrics"
	"github.com/mesh-intelligence/gameshelf/internal/paths"
	"github.com/mesh-intelligence/gameshelf/internal/report"
	"github.com/mesh-intelligence/gameshelf/internal/source"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Options wires Process to its collaborators. Logger, Metrics, History
// and Now are optional.
type Options struct {
	Layout  paths.Layout
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	History *history.Store
	Now     func() time.Time
}

// Summary describes a completed process run.
type Summary struct {
	RunID         string            `json:"run_id"`
	Games         int               `json:"games"`
	Plays         int               `json:"plays"`
	Appended      int               `json:"appended"`
	Uncategorized []string          `json:"uncategorized"`
	Categories    map[string]int    `json:"categories"`
	StorePath     string            `json:"store_path"`
	MergedPath    string            `json:"merged_path"`
	Rows          []types.MergedRow `json:"-"`
}

// Process runs the pipeline. Nothing is written unless both sources parse
// and the merge succeeds; the store is saved before the merged artifact.
// When a history store is configured the run is recorded whether or not
// it succeeds.
func Process(ctx context.Context, opts Options) (Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	run := &history.Run{
		ID:        history.NewRunID(),
		Command:   "process",
		StartedAt: now(),
	}
	log = log.With(zap.String("run_id", run.ID))

	sum, err := process(opts.Layout, log)
	sum.RunID = run.ID

	run.FinishedAt = now()
	run.Games, run.Plays, run.Appended = sum.Games, sum.Plays, sum.Appended
	run.Uncategorized = len(sum.Uncategorized)
	run.Categories = sum.Categories
	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
	} else {
		run.Status = history.StatusSucceeded
	}

	if opts.History != nil {
		if herr := opts.History.Record(ctx, run); herr != nil {
			log.Error("recording run history failed", herr)
		}
	}
	if err != nil {
		return Summary{RunID: run.ID}, err
	}

	if m := opts.Metrics; m != nil {
		m.GamesProcessed.Add(float64(sum.Games))
		m.PlaysProcessed.Add(float64(sum.Plays))
		m.CategoriesAppended.Add(float64(sum.Appended))
		m.UncategorizedGames.Set(float64(len(sum.Uncategorized)))
	}
	log.Info("process complete",
		zap.Int("games", sum.Games),
		zap.Int("plays", sum.Plays),
		zap.Int("appended", sum.Appended),
		zap.Int("uncategorized", len(sum.Uncategorized)),
	)
	return sum, nil
}

func process(layout paths.Layout, log *logger.Logger) (Summary, error) {
	raw, err := fetch.LoadRaw(layout)
	if err != nil {
		return Summary{}, err
	}

	games, err := source.ParseCollection(raw.Collection)
	if err != nil {
		return Summary{}, types.NewStageError(types.StageParse, layout.Collection(), err)
	}
	var plays []types.PlayRecord
	stated := 0
	for i, page := range raw.PlayPages {
		p, err := source.ParsePlayPage(page)
		if err != nil {
			return Summary{}, types.NewStageError(types.StageParse, layout.PlayPage(i+1), err)
		}
		plays = append(plays, p.Plays...)
		stated = max(stated, p.Total)
	}
	if len(plays) < stated {
		return Summary{}, types.NewStageError(types.StageParse, layout.PlaysDir(),
			fmt.Errorf("%w: play history holds %d of %d plays, fetch again", types.ErrParse, len(plays), stated))
	}
	log.Debug("sources parsed", zap.Int("games", len(games)), zap.Int("plays", len(plays)))

	store, err := catstore.Load(layout.CategoryStore())
	if err != nil {
		return Summary{}, types.NewStageError(types.StageLoadStore, layout.CategoryStore(), err)
	}
	appended := store.Reconcile(games)

	res, err := merge.Merge(games, plays, store.Records())
	if err != nil {
		return Summary{}, types.NewStageError(types.StageMerge, layout.Collection(), err)
	}
	for _, id := range res.Uncategorized {
		log.Warn("game has no category record, using empty category", zap.String("game_id", id))
	}

	if err := catstore.Save(layout.CategoryStore(), store); err != nil {
		return Summary{}, types.NewStageError(types.StageSaveStore, layout.CategoryStore(), err)
	}
	if err := report.WriteMerged(layout.Merged(), res.Rows); err != nil {
		return Summary{}, types.NewStageError(types.StageWrite, layout.Merged(), err)
	}

	sum := Summary{
		Games:      len(games),
		Plays:      len(plays),
		Appended:   appended,
		Categories: make(map[string]int),
		StorePath:  layout.CategoryStore(),
		MergedPath: layout.Merged(),
		Rows:       res.Rows,
	}
	for _, row := range res.Rows {
		sum.Categories[row.Category]++
		if row.Category == "" {
			sum.Uncategorized = append(sum.Uncategorized, row.GameID)
		}
	}
	if len(sum.Uncategorized) > 0 {
		log.Info("games awaiting a category",
			zap.Int("count", len(sum.Uncategorized)),
			zap.String("store", layout.CategoryStore()),
		)
	}
	return sum, nil
}
