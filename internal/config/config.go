package config

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xraph/beans/internal/errors"
	"github.com/xraph/beans/internal/logger"
	"github.com/xraph/beans/internal/metrics"
)

// Environments recognized by the container.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)

// Environment variable names read by Load.
const (
	VarEnv              = "BEANS_ENV"
	VarLogLevel         = "BEANS_LOG_LEVEL"
	VarLogFormat        = "BEANS_LOG_FORMAT"
	VarMetricsEnabled   = "BEANS_METRICS_ENABLED"
	VarMetricsNamespace = "BEANS_METRICS_NAMESPACE"
	VarTracingEnabled   = "BEANS_TRACING_ENABLED"
)

// Config holds container settings.
type Config struct {
	Env     string               `yaml:"env" json:"env"`
	Logging logger.LoggingConfig `yaml:"logging" json:"logging"`
	Metrics metrics.Config       `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig        `yaml:"tracing" json:"tracing"`
}

// TracingConfig controls span creation around construction and shutdown.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Env: EnvProduction,
		Logging: logger.LoggingConfig{
			Level:  string(logger.LevelInfo),
			Format: "console",
		},
		Metrics: metrics.Config{
			Enabled:   false,
			Namespace: "beans",
		},
		Tracing: TracingConfig{Enabled: true},
	}
}

// Load reads the given .env files (".env" when none are given) and then
// builds a Config from environment variables, falling back to Default.
// Missing .env files are not an error; variables already set in the
// process environment win over the files.
func Load(envFiles ...string) (Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.ErrConfiguration("", errors.StageValidate,
				fmt.Sprintf("reading %s: %v", f, err))
		}
	}

	cfg := Default()
	cfg.Env = env(VarEnv, cfg.Env)
	cfg.Logging.Level = env(VarLogLevel, cfg.Logging.Level)
	cfg.Logging.Format = env(VarLogFormat, cfg.Logging.Format)
	cfg.Metrics.Namespace = env(VarMetricsNamespace, cfg.Metrics.Namespace)

	var err error
	if cfg.Metrics.Enabled, err = envBool(VarMetricsEnabled, cfg.Metrics.Enabled); err != nil {
		return Config{}, err
	}
	if cfg.Tracing.Enabled, err = envBool(VarTracingEnabled, cfg.Tracing.Enabled); err != nil {
		return Config{}, err
	}

	return cfg.finish()
}

// LoadFile reads a YAML configuration file. ${VAR} references are expanded
// from the environment before decoding, and unset fields keep their defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.ErrConfiguration("", errors.StageValidate,
			fmt.Sprintf("reading %s: %v", path, err))
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes YAML configuration from r.
func Parse(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.ErrConfiguration("", errors.StageValidate, err.Error())
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(raw))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.ErrConfiguration("", errors.StageValidate,
			"decoding configuration: "+err.Error())
	}
	return cfg.finish()
}

// IsTest reports whether the container runs in the test environment.
func (c Config) IsTest() bool {
	return c.Env == EnvTest
}

// Validate checks the values that have a closed set of choices.
func (c Config) Validate() error {
	switch c.Env {
	case EnvProduction, EnvDevelopment, EnvTest:
	default:
		return errors.ErrConfiguration("", errors.StageValidate, "unknown environment "+strconv.Quote(c.Env))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return errors.ErrConfiguration("", errors.StageValidate, "unknown log format "+strconv.Quote(c.Logging.Format))
	}
	return nil
}

func (c Config) finish() (Config, error) {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.Logging.Environment = c.Env
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func env(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.ErrConfiguration("", errors.StageValidate,
			fmt.Sprintf("%s: %q is not a boolean", key, v))
	}
	return b, nil
}
