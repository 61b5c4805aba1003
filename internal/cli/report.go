package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/gameshelf/internal/report"
	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// previewWidth is the wrap width for --preview output.
const previewWidth = 100

type reportOptions struct {
	format    string
	combined  bool
	preview   bool
	outputDir string
}

type reportResult struct {
	Format string   `json:"format"`
	Groups int      `json:"groups"`
	Rows   int      `json:"rows"`
	Files  []string `json:"files"`
}

func newReportCmd(a *app) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the merged games by category",
		Long: `Report reads games_last_played.csv written by "gameshelf process" and
renders one report per category, or a single combined report with
--combined. It never contacts the catalog service, so it can be re-run
after editing categories and processing again.

Formats: pdf, csv, markdown, terminal. The terminal format prints to
standard output instead of writing files.`,
		Example: `  gameshelf report
  gameshelf report --format markdown --combined
  gameshelf report --format markdown --preview
  gameshelf report --format terminal`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "", "report format: pdf, csv, markdown, terminal (default: report.format from config.yaml)")
	cmd.Flags().BoolVar(&opts.combined, "combined", false, "write one file for all categories")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print a rendered markdown preview instead of writing files")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "directory for report files (default: <data-dir>/reports)")
	return cmd
}

func (a *app) runReport(cmd *cobra.Command, opts reportOptions) error {
	if !cmd.Flags().Changed("format") {
		opts.format = a.cfg.Report.Format
	}
	if !cmd.Flags().Changed("combined") {
		opts.combined = a.cfg.Report.Combined
	}
	if opts.outputDir == "" {
		opts.outputDir = a.cfg.Report.OutputDir
	}
	if opts.outputDir == "" {
		opts.outputDir = a.layout.ReportsDir()
	}

	renderer, err := report.NewRenderer(opts.format)
	if err != nil {
		return &userError{err: err}
	}

	rows, err := report.ReadMerged(a.layout.Merged())
	if errors.Is(err, os.ErrNotExist) {
		return userErrorf("no merged data at %s: run \"gameshelf process\" first", a.layout.Merged())
	}
	if err != nil {
		return types.NewStageError(types.StageReport, a.layout.Merged(), err)
	}
	groups := report.GroupByCategory(rows)
	out := cmd.OutOrStdout()

	if opts.preview {
		var buf bytes.Buffer
		if err := (report.MarkdownRenderer{}).RenderAll(&buf, groups); err != nil {
			return types.NewStageError(types.StageReport, "preview", err)
		}
		rendered, err := report.Preview(buf.String(), previewWidth)
		if err != nil {
			return types.NewStageError(types.StageReport, "preview", err)
		}
		_, err = fmt.Fprint(out, rendered)
		return err
	}

	if opts.format == report.FormatTerminal {
		if err := renderer.RenderAll(out, groups); err != nil {
			return types.NewStageError(types.StageReport, "stdout", err)
		}
		return nil
	}

	w := report.Writer{Dir: opts.outputDir, Combined: opts.combined}
	files, err := w.Write(groups, renderer)
	if err != nil {
		return types.NewStageError(types.StageReport, opts.outputDir, err)
	}
	a.metrics.ReportsWritten.WithLabelValues(opts.format).Add(float64(len(files)))
	a.log.Info("reports written",
		zap.String("format", opts.format),
		zap.Int("files", len(files)),
		zap.String("dir", opts.outputDir),
	)

	res := reportResult{Format: opts.format, Groups: len(groups), Rows: len(rows), Files: files}
	if a.flags.jsonMode {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "Wrote %d %s report file(s) for %d categor%s:\n", len(files), opts.format, len(groups), plural(len(groups), "y", "ies"))
	for _, f := range files {
		fmt.Fprintln(out, "  "+f)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
