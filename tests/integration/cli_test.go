package integration

import (
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the gameshelf binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "gameshelf-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	gameshelfBin = filepath.Join(tmpDir, "gameshelf")

	cmd := exec.Command("go", "build", "-o", gameshelfBin, "./cmd/gameshelf")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

const collectionXML = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<items totalitems="3">
	<item objecttype="thing" objectid="13" subtype="boardgame"><name sortindex="1">Catan</name></item>
	<item objecttype="thing" objectid="230802" subtype="boardgame"><name sortindex="1">Azul</name></item>
	<item objecttype="thing" objectid="822" subtype="boardgame"><name sortindex="1">Carcassonne</name></item>
</items>`

func newCatalog() *Catalog {
	return &Catalog{
		Collection:        collectionXML,
		PendingCollection: 1,
		PlayPages: []string{
			`<plays username="meeple" total="3" page="1">
				<play id="1" date="2024-01-01"><item name="Catan" objectid="13"/></play>
				<play id="2" date="2024-03-03"><item name="Catan" objectid="13"/></play>
			</plays>`,
			`<plays username="meeple" total="3" page="2">
				<play id="3" date="2023-07-14"><item name="Carcassonne" objectid="822"/></play>
			</plays>`,
		},
	}
}

type processSummary struct {
	Games         int            `json:"games"`
	Plays         int            `json:"plays"`
	Appended      int            `json:"appended"`
	Uncategorized []string       `json:"uncategorized"`
	Categories    map[string]int `json:"categories"`
}

type categoryRecord struct {
	GameID   string `json:"game_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func TestVersion(t *testing.T) {
	env := NewTestEnv(t, newCatalog())

	result := env.MustRun("version")
	assert.Contains(t, result.Stdout, "gameshelf v")
}

func TestInitCreatesDirectories(t *testing.T) {
	env := NewTestEnv(t, newCatalog())
	configDir := filepath.Join(env.TempDir, "fresh-config")

	result := env.Run("--config-dir", configDir, "--data-dir", env.DataDir, "init", "--username", "meeple")
	require.Equal(t, 0, result.ExitCode, result.Stderr)

	assert.FileExists(t, filepath.Join(configDir, "config.yaml"))
	assert.DirExists(t, filepath.Join(env.DataDir, "reports"))
	assert.FileExists(t, filepath.Join(env.DataDir, "history.db"))

	cfg, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "username: meeple")
}

func TestFullWorkflow(t *testing.T) {
	env := NewTestEnv(t, newCatalog())

	env.MustRun("fetch")
	assert.FileExists(t, filepath.Join(env.DataDir, "collection.xml"))
	assert.FileExists(t, filepath.Join(env.DataDir, "plays", "page-002.xml"))

	sum := ParseJSON[processSummary](t, env.MustRun("--json", "process").Stdout)
	assert.Equal(t, 3, sum.Games)
	assert.Equal(t, 3, sum.Plays)
	assert.Equal(t, 3, sum.Appended)
	assert.Len(t, sum.Uncategorized, 3)

	assert.Equal(t, "game_id,name,category\n13,Catan,\n230802,Azul,\n822,Carcassonne,\n",
		env.ReadFile("game_categories.csv"))
	assert.Equal(t, "name,last_played,category\nAzul,never,\nCarcassonne,2023-07-14,\nCatan,2024-03-03,\n",
		env.ReadFile("games_last_played.csv"))

	env.MustRun("categories", "set", "13", "Strategy")
	env.MustRun("categories", "set", "822", "Family")
	env.MustRun("process")

	assert.Equal(t, "name,last_played,category\nAzul,never,\nCarcassonne,2023-07-14,Family\nCatan,2024-03-03,Strategy\n",
		env.ReadFile("games_last_played.csv"))

	uncategorized := ParseJSON[[]categoryRecord](t, env.MustRun("--json", "categories", "list", "--uncategorized").Stdout)
	require.Len(t, uncategorized, 1)
	assert.Equal(t, "230802", uncategorized[0].GameID)

	result := env.MustRun("report", "--format", "csv")
	for _, name := range []string{"games_report_uncategorized.csv", "games_report_Family.csv", "games_report_Strategy.csv"} {
		assert.FileExists(t, filepath.Join(env.DataDir, "reports", name))
	}
	assert.Contains(t, result.Stdout, "Wrote 3 csv report file(s)")

	env.MustRun("report", "--format", "pdf", "--combined")
	assert.FileExists(t, filepath.Join(env.DataDir, "reports", "games_report_by_category.pdf"))

	terminal := env.MustRun("report", "--format", "terminal")
	assert.Contains(t, terminal.Stdout, "Carcassonne")

	history := env.MustRun("history")
	assert.Equal(t, 2, strings.Count(history.Stdout, "succeeded"))
}

func TestProcessBeforeFetchIsUserError(t *testing.T) {
	env := NewTestEnv(t, newCatalog())

	result := env.Run("process")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "run fetch first")
}

func TestReportBeforeProcessIsUserError(t *testing.T) {
	env := NewTestEnv(t, newCatalog())

	result := env.Run("report")
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "gameshelf process")
}

func TestFetchFailureKeepsPreviousData(t *testing.T) {
	catalog := newCatalog()
	env := NewTestEnv(t, catalog)
	env.MustRun("fetch")
	before := env.ReadFile("collection.xml")

	catalog.mu.Lock()
	catalog.FailStatus = http.StatusServiceUnavailable
	catalog.mu.Unlock()

	result := env.Run("fetch")
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Stderr, "fetch collection")
	assert.Equal(t, before, env.ReadFile("collection.xml"))
}

func TestCorruptStoreIsFatal(t *testing.T) {
	env := NewTestEnv(t, newCatalog())
	env.MustRun("fetch")
	require.NoError(t, os.WriteFile(filepath.Join(env.DataDir, "game_categories.csv"),
		[]byte("name,category\nCatan,Strategy\n"), 0o644))

	result := env.Run("process")
	assert.Equal(t, 2, result.ExitCode)
	assert.Contains(t, result.Stderr, "game_categories.csv")
	assert.NoFileExists(t, filepath.Join(env.DataDir, "games_last_played.csv"))
}

func TestUnknownGameIsUserError(t *testing.T) {
	env := NewTestEnv(t, newCatalog())
	env.MustRun("fetch")
	env.MustRun("process")

	result := env.Run("categories", "set", "999", "Party")
	assert.Equal(t, 1, result.ExitCode)
}

func TestInvalidFlagIsUserError(t *testing.T) {
	env := NewTestEnv(t, newCatalog())

	result := env.Run("report", "--format", "docx")
	assert.Equal(t, 1, result.ExitCode)

	result = env.Run("history", "--limit", "many")
	assert.Equal(t, 1, result.ExitCode)
}
