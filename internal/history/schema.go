package history

const (
	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    command TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    games INTEGER NOT NULL,
    plays INTEGER NOT NULL,
    appended INTEGER NOT NULL,
    uncategorized INTEGER NOT NULL,
    error TEXT
);`

	createRunCategories = `CREATE TABLE IF NOT EXISTS run_categories (
    run_id TEXT NOT NULL,
    category TEXT NOT NULL,
    games INTEGER NOT NULL,
    PRIMARY KEY (run_id, category),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`

	idxRunsStarted = `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);`
)

var schemaDDL = []string{
	createRuns,
	createRunCategories,
	idxRunsStarted,
}
