// Package integration runs the gameshelf binary end to end against a fake
// catalog service.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

var (
	// gameshelfBin is the path to the built gameshelf binary.
	gameshelfBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Catalog is a fake catalog service. The collection endpoint answers 202
// PendingCollection times before serving Collection. Plays are served one
// page per entry.
type Catalog struct {
	mu                sync.Mutex
	Collection        string
	PlayPages         []string
	PendingCollection int
	FailStatus        int
	requests          []string
}

func (c *Catalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r.URL.Path+"?"+r.URL.RawQuery)

	if c.FailStatus != 0 {
		w.WriteHeader(c.FailStatus)
		return
	}

	switch r.URL.Path {
	case "/collection":
		if c.PendingCollection > 0 {
			c.PendingCollection--
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, "<message>Your request for this collection has been accepted and will be processed.</message>")
			return
		}
		fmt.Fprint(w, c.Collection)
	case "/plays":
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 || page > len(c.PlayPages) {
			fmt.Fprintf(w, `<plays total="0" page="%d"></plays>`, page)
			return
		}
		fmt.Fprint(w, c.PlayPages[page-1])
	default:
		http.NotFound(w, r)
	}
}

// Requests returns the request paths seen so far.
func (c *Catalog) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

// TestEnv provides an isolated test environment with its own config
// directory, data directory and catalog server.
type TestEnv struct {
	t         *testing.T
	TempDir   string
	ConfigDir string
	DataDir   string
	Catalog   *Catalog
}

// NewTestEnv creates a new isolated test environment.
func NewTestEnv(t *testing.T, catalog *Catalog) *TestEnv {
	t.Helper()

	if buildErr != nil {
		t.Fatalf("failed to build gameshelf: %v", buildErr)
	}
	if gameshelfBin == "" {
		t.Fatal("gameshelf binary not built (gameshelfBin is empty)")
	}

	srv := httptest.NewServer(catalog)
	t.Cleanup(srv.Close)

	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	dataDir := filepath.Join(tempDir, "data")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	configContent := fmt.Sprintf(`username: meeple
data_dir: %s
log_level: warn
fetch:
  base_url: %s
  max_attempts: 4
  initial_backoff: 5ms
  max_backoff: 20ms
`, dataDir, srv.URL)
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &TestEnv{
		t:         t,
		TempDir:   tempDir,
		ConfigDir: configDir,
		DataDir:   dataDir,
		Catalog:   catalog,
	}
}

// CmdResult holds the result of a gameshelf command execution.
type CmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes the gameshelf CLI with the given arguments.
func (e *TestEnv) Run(args ...string) CmdResult {
	e.t.Helper()

	allArgs := append([]string{"--config-dir", e.ConfigDir}, args...)
	cmd := exec.Command(gameshelfBin, allArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			e.t.Fatalf("failed to run gameshelf: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return CmdResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

// MustRun executes the gameshelf CLI and fails the test if it returns
// non-zero.
func (e *TestEnv) MustRun(args ...string) CmdResult {
	e.t.Helper()
	result := e.Run(args...)
	if result.ExitCode != 0 {
		e.t.Fatalf("gameshelf %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, result.ExitCode, result.Stdout, result.Stderr)
	}
	return result
}

// ReadFile returns the contents of a file under the data directory.
func (e *TestEnv) ReadFile(name string) string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.DataDir, name))
	if err != nil {
		e.t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// ParseJSON parses JSON output into the target type.
func ParseJSON[T any](t *testing.T, jsonStr string) T {
	t.Helper()
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", jsonStr, err)
	}
	return result
}
