package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gameshelf/internal/config"
	"github.com/mesh-intelligence/gameshelf/internal/history"
)

type initResult struct {
	ConfigDir     string `json:"config_dir"`
	ConfigFile    string `json:"config_file"`
	ConfigWritten bool   `json:"config_written"`
	DataDir       string `json:"data_dir"`
}

func newInitCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: `Init writes a default config.yaml into the configuration directory when
none exists and creates the data directory with an empty run history.
An existing config.yaml is never overwritten.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, username)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "BoardGameGeek username stored in the new config.yaml")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, username string) error {
	cfg := *a.cfg
	if username != "" {
		cfg.Username = username
	}
	if a.flags.dataDir != "" {
		cfg.DataDir = a.layout.Root
	}

	wrote, err := config.WriteIfMissing(a.configDir, cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.layout.ReportsDir(), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	hist, err := history.Open(a.layout.History())
	if err != nil {
		return err
	}
	if err := hist.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}

	res := initResult{
		ConfigDir:     a.configDir,
		ConfigFile:    filepath.Join(a.configDir, config.FileName),
		ConfigWritten: wrote,
		DataDir:       a.layout.Root,
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "gameshelf initialized")
	fmt.Fprintln(out, "  config:", res.ConfigFile)
	fmt.Fprintln(out, "  data:  ", res.DataDir)
	if !wrote {
		fmt.Fprintln(out, "  (existing config.yaml kept)")
	}
	return nil
}
