// Package config loads gameshelf settings from config.yaml and the
// environment and validates them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

const (
	fileName = "config"
	fileType = "yaml"

	// FileName is the config file name inside the config directory.
	FileName = "config.yaml"

	envPrefix = "GAMESHELF"
)

// Config keys.
const (
	KeyUsername            = "username"
	KeyDataDir             = "data_dir"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyFetchBaseURL        = "fetch.base_url"
	KeyFetchTimeout        = "fetch.timeout"
	KeyFetchMaxAttempts    = "fetch.max_attempts"
	KeyFetchInitialBackoff = "fetch.initial_backoff"
	KeyFetchMaxBackoff     = "fetch.max_backoff"
	KeyFetchMultiplier     = "fetch.multiplier"
	KeyReportFormat        = "report.format"
	KeyReportOutputDir     = "report.output_dir"
	KeyReportCombined      = "report.combined"
	KeyMetricsTextfile     = "metrics.textfile"
)

// DefaultBaseURL is the BoardGameGeek XML API 2 root.
const DefaultBaseURL = "https://boardgamegeek.com/xmlapi2"

// Config is the effective configuration.
type Config struct {
	Username  string        `mapstructure:"username"`
	DataDir   string        `mapstructure:"data_dir"`
	LogLevel  string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string        `mapstructure:"log_format" validate:"oneof=console json"`
	Fetch     FetchConfig   `mapstructure:"fetch"`
	Report    ReportConfig  `mapstructure:"report"`
	Metrics   MetricsConfig `mapstructure:"metrics"`
}

// FetchConfig controls catalog retrieval and its retry loop.
type FetchConfig struct {
	BaseURL        string        `mapstructure:"base_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxAttempts    int           `mapstructure:"max_attempts" validate:"min=1,max=100"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
	Multiplier     float64       `mapstructure:"multiplier" validate:"gte=1"`
}

// ReportConfig holds report defaults; command flags override them.
type ReportConfig struct {
	Format    string `mapstructure:"format" validate:"oneof=csv pdf markdown terminal"`
	OutputDir string `mapstructure:"output_dir"`
	Combined  bool   `mapstructure:"combined"`
}

// MetricsConfig enables the Prometheus textfile output when Textfile is set.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

var validate = validator.New()

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "console",
		Fetch: FetchConfig{
			BaseURL:        DefaultBaseURL,
			Timeout:        30 * time.Second,
			MaxAttempts:    8,
			InitialBackoff: 5 * time.Second,
			MaxBackoff:     60 * time.Second,
			Multiplier:     2,
		},
		Report: ReportConfig{
			Format: "pdf",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyUsername, d.Username)
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyFetchBaseURL, d.Fetch.BaseURL)
	v.SetDefault(KeyFetchTimeout, d.Fetch.Timeout)
	v.SetDefault(KeyFetchMaxAttempts, d.Fetch.MaxAttempts)
	v.SetDefault(KeyFetchInitialBackoff, d.Fetch.InitialBackoff)
	v.SetDefault(KeyFetchMaxBackoff, d.Fetch.MaxBackoff)
	v.SetDefault(KeyFetchMultiplier, d.Fetch.Multiplier)
	v.SetDefault(KeyReportFormat, d.Report.Format)
	v.SetDefault(KeyReportOutputDir, d.Report.OutputDir)
	v.SetDefault(KeyReportCombined, d.Report.Combined)
	v.SetDefault(KeyMetricsTextfile, d.Metrics.Textfile)
}

// Load reads config.yaml from configDir, applies GAMESHELF_* environment
// overrides and validates the result. A missing config.yaml is not an
// error; the defaults apply.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfigInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", types.ErrConfigInvalid, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", types.ErrConfigInvalid, strings.Join(msgs, "; "))
}
