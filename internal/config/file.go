package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/gameshelf/internal/atomicfile"
)

// fileConfig is the on-disk shape of config.yaml. Durations are written
// as Go duration strings so the file stays readable.
type fileConfig struct {
	Username  string      `yaml:"username"`
	DataDir   string      `yaml:"data_dir,omitempty"`
	LogLevel  string      `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`
	Fetch     fileFetch   `yaml:"fetch"`
	Report    fileReport  `yaml:"report"`
	Metrics   fileMetrics `yaml:"metrics"`
}

type fileFetch struct {
	BaseURL        string  `yaml:"base_url"`
	Timeout        string  `yaml:"timeout"`
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialBackoff string  `yaml:"initial_backoff"`
	MaxBackoff     string  `yaml:"max_backoff"`
	Multiplier     float64 `yaml:"multiplier"`
}

type fileReport struct {
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir,omitempty"`
	Combined  bool   `yaml:"combined"`
}

type fileMetrics struct {
	Textfile string `yaml:"textfile,omitempty"`
}

func toFile(c Config) fileConfig {
	return fileConfig{
		Username:  c.Username,
		DataDir:   c.DataDir,
		LogLevel:  c.LogLevel,
		LogFormat: c.LogFormat,
		Fetch: fileFetch{
			BaseURL:        c.Fetch.BaseURL,
			Timeout:        c.Fetch.Timeout.String(),
			MaxAttempts:    c.Fetch.MaxAttempts,
			InitialBackoff: c.Fetch.InitialBackoff.String(),
			MaxBackoff:     c.Fetch.MaxBackoff.String(),
			Multiplier:     c.Fetch.Multiplier,
		},
		Report: fileReport{
			Format:    c.Report.Format,
			OutputDir: c.Report.OutputDir,
			Combined:  c.Report.Combined,
		},
		Metrics: fileMetrics{Textfile: c.Metrics.Textfile},
	}
}

// Marshal renders c in config.yaml form.
func Marshal(c Config) ([]byte, error) {
	data, err := yaml.Marshal(toFile(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WriteIfMissing writes c to configDir/config.yaml unless the file already
// exists, creating configDir as needed. It reports whether it wrote.
func WriteIfMissing(configDir string, c Config) (bool, error) {
	path := filepath.Join(configDir, FileName)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := Marshal(c)
	if err != nil {
		return false, err
	}
	if err := atomicfile.WriteBytes(path, data); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
