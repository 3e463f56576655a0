package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"goreplicate/domain/stats"
	"goreplicate/internal/errors"
)

// Model names
const (
	ModelSocial = "social"
	ModelEffort = "effort"
)

// Optimizer methods
const (
	MethodBFGS       = "bfgs"
	MethodNelderMead = "nelder-mead"
)

// Output formats
const (
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatManifest = "json"
)

// Config represents one estimation run
type Config struct {
	Model     string            `yaml:"model"`
	Data      DataConfig        `yaml:"data"`
	Samples   []SampleConfig    `yaml:"samples"`
	Params    []stats.ParamSpec `yaml:"params"`
	Optimizer OptimizerConfig   `yaml:"optimizer"`
	Variance  VarianceConfig    `yaml:"variance"`
	Output    OutputConfig      `yaml:"output"`
	LogLevel  string            `yaml:"log_level"`
}

// DataConfig holds input file settings
type DataConfig struct {
	Path             string `yaml:"path"`
	Exclusions       string `yaml:"exclusions"`
	DropBonusOffered bool   `yaml:"drop_bonus_offered"`
}

// SampleConfig selects one estimation sample. Session 0 keeps every row;
// Path overrides the shared data file when sessions live in separate files.
type SampleConfig struct {
	Name    string `yaml:"name"`
	Session int    `yaml:"session"`
	Path    string `yaml:"path"`
}

// OptimizerConfig holds minimizer settings
type OptimizerConfig struct {
	Method            string  `yaml:"method"`
	MaxIterations     int     `yaml:"max_iterations"`
	MaxEvaluations    int     `yaml:"max_evaluations"`
	Tolerance         float64 `yaml:"tolerance"`
	GradientThreshold float64 `yaml:"gradient_threshold"`
	Starts            int     `yaml:"starts"` // 0 uses the fixed start only
	Seed              int64   `yaml:"seed"`
	Workers           int     `yaml:"workers"`
	AllowNonConverged bool    `yaml:"allow_nonconverged"`
}

// VarianceConfig holds numerical settings for the likelihood and the sandwich
type VarianceConfig struct {
	ClampEpsilon      float64 `yaml:"clamp_epsilon"`
	Step              float64 `yaml:"step"`         // first-derivative finite-difference step
	HessianStep       float64 `yaml:"hessian_step"` // second-derivative step
	SymmetryTolerance float64 `yaml:"symmetry_tolerance"`
}

// OutputConfig holds report settings
type OutputConfig struct {
	Dir      string   `yaml:"dir"`
	Basename string   `yaml:"basename"`
	Formats  []string `yaml:"formats"`
	Decimals int      `yaml:"decimals"`
}

// Default returns the built-in configuration for a model
func Default(model string) (*Config, error) {
	switch model {
	case ModelSocial:
		return DefaultSocial(), nil
	case ModelEffort:
		return DefaultEffort(), nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown model %q (want %s or %s)", model, ModelSocial, ModelEffort))
}

// DefaultSocial is the discrete-choice social preference model, two sessions.
func DefaultSocial() *Config {
	return &Config{
		Model: ModelSocial,
		Data: DataConfig{
			Path:       "data/social_preferences.csv",
			Exclusions: "data/social_exclusions.csv",
		},
		Samples: []SampleConfig{
			{Name: "session1", Session: 1},
			{Name: "session2", Session: 2},
		},
		Params: []stats.ParamSpec{
			{Name: "alpha", Start: 0, Lower: -1, Upper: 1, Transform: stats.TransformIdentity},
			{Name: "beta", Start: 0, Lower: -1, Upper: 1, Transform: stats.TransformIdentity},
			{Name: "gamma", Start: 0, Lower: -1, Upper: 1, Transform: stats.TransformIdentity},
			{Name: "delta", Start: 0, Lower: -1, Upper: 1, Transform: stats.TransformIdentity},
			{Name: "sigma", Start: 0.01, Lower: 0.001, Upper: 0.1, Transform: stats.TransformExp},
		},
		Optimizer: OptimizerConfig{
			Method:            MethodBFGS,
			MaxIterations:     1000,
			Tolerance:         1e-10,
			GradientThreshold: 1e-6,
			Seed:              42,
			Workers:           1,
		},
		Variance: defaultVariance(),
		Output:   defaultOutput("social_preferences"),
	}
}

// DefaultEffort is the structural effort-choice model with Tobit censoring.
func DefaultEffort() *Config {
	return &Config{
		Model: ModelEffort,
		Data: DataConfig{
			Path:       "data/effort_choices.dta",
			Exclusions: "data/effort_exclusions.csv",
		},
		Samples: []SampleConfig{{Name: "all"}},
		Params: []stats.ParamSpec{
			{Name: "beta", Start: 1, Lower: 0.6, Upper: 1.2, Transform: stats.TransformIdentity, Reference: 1},
			{Name: "beta_h", Start: 1, Lower: 0.6, Upper: 1.2, Transform: stats.TransformIdentity, Reference: 1},
			{Name: "delta", Start: 1, Lower: 0.95, Upper: 1.05, Transform: stats.TransformIdentity, Reference: 1},
			{Name: "gamma", Start: 2, Lower: 1.3, Upper: 3.5, Transform: stats.TransformIdentity},
			{Name: "phi", Start: 500, Lower: 100, Upper: 3000, Transform: stats.TransformExp},
			{Name: "alpha", Start: 10, Lower: 0, Upper: 20, Transform: stats.TransformIdentity},
			{Name: "sigma", Start: 40, Lower: 10, Upper: 80, Transform: stats.TransformExp},
		},
		Optimizer: OptimizerConfig{
			Method:         MethodNelderMead,
			MaxIterations:  20000,
			MaxEvaluations: 60000,
			Tolerance:      1e-8,
			Seed:           42,
			Workers:        1,
		},
		Variance: defaultVariance(),
		Output:   defaultOutput("effort_choices"),
	}
}

func defaultVariance() VarianceConfig {
	return VarianceConfig{
		ClampEpsilon:      1e-4,
		Step:              1e-5,
		HessianStep:       1e-4,
		SymmetryTolerance: 1e-6,
	}
}

func defaultOutput(basename string) OutputConfig {
	return OutputConfig{
		Dir:      "results",
		Basename: basename,
		Formats:  []string{FormatCSV, FormatManifest},
		Decimals: 3,
	}
}

// Load reads a YAML model file on top of the model defaults, then applies
// environment overrides. An empty path uses the defaults alone.
func Load(path, model string) (*Config, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
		if model == "" {
			var header struct {
				Model string `yaml:"model"`
			}
			if err := yaml.Unmarshal(raw, &header); err != nil {
				return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
			}
			model = header.Model
		}
		cfg, err := Default(model)
		if err != nil {
			return nil, err
		}
		// A params list in the file replaces the defaults wholesale.
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parse %s: %w", path, err))
		}
		if cfg.Model != model {
			return nil, errors.ConfigInvalid(fmt.Sprintf("config %s declares model %q, requested %q", path, cfg.Model, model))
		}
		return finish(cfg)
	}

	cfg, err := Default(model)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	applyEnv(cfg)
	if cfg.Optimizer.Workers == 0 {
		cfg.Optimizer.Workers = 1
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Data.Path = getEnvOrDefault("GOREPLICATE_DATA", cfg.Data.Path)
	cfg.Data.Exclusions = getEnvOrDefault("GOREPLICATE_EXCLUSIONS", cfg.Data.Exclusions)
	cfg.Output.Dir = getEnvOrDefault("GOREPLICATE_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Optimizer.Seed = getEnvInt64OrDefault("GOREPLICATE_SEED", cfg.Optimizer.Seed)
	cfg.Optimizer.Workers = getEnvIntOrDefault("GOREPLICATE_WORKERS", cfg.Optimizer.Workers)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	if formats := os.Getenv("GOREPLICATE_FORMATS"); formats != "" {
		cfg.Output.Formats = splitList(formats)
	}
}

// Validate checks a configuration before any data is read
func Validate(cfg *Config) error {
	if cfg.Model != ModelSocial && cfg.Model != ModelEffort {
		return errors.ConfigInvalid(fmt.Sprintf("unknown model %q", cfg.Model))
	}
	if cfg.Data.Path == "" && !samplesHavePaths(cfg.Samples) {
		return errors.ConfigInvalid("data path is required")
	}
	if len(cfg.Samples) == 0 {
		return errors.ConfigInvalid("at least one sample is required")
	}
	seen := make(map[string]bool)
	for _, s := range cfg.Samples {
		if s.Name == "" {
			return errors.ConfigInvalid("sample name is required")
		}
		if seen[s.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate sample %q", s.Name))
		}
		seen[s.Name] = true
	}
	if len(cfg.Params) == 0 {
		return errors.ConfigInvalid("no parameters configured")
	}
	names := make(map[string]bool)
	for _, p := range cfg.Params {
		if p.Name == "" {
			return errors.ConfigInvalid("parameter name is required")
		}
		if names[p.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		names[p.Name] = true
		if err := p.Transform.Validate(); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parameter %s: %w", p.Name, err))
		}
		if _, err := p.WorkingStart(); err != nil {
			return errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("parameter %s start: %w", p.Name, err))
		}
		if cfg.Optimizer.Starts > 0 {
			if _, _, err := p.WorkingBounds(); err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}
		}
	}
	switch cfg.Optimizer.Method {
	case MethodBFGS, MethodNelderMead:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown optimizer method %q", cfg.Optimizer.Method))
	}
	if cfg.Optimizer.MaxIterations <= 0 {
		return errors.ConfigInvalid("optimizer.max_iterations must be positive")
	}
	if cfg.Optimizer.Starts < 0 {
		return errors.ConfigInvalid("optimizer.starts cannot be negative")
	}
	if cfg.Optimizer.Workers < 0 {
		return errors.ConfigInvalid("optimizer.workers cannot be negative")
	}
	if cfg.Variance.ClampEpsilon <= 0 || cfg.Variance.ClampEpsilon >= 0.5 {
		return errors.ConfigInvalid("variance.clamp_epsilon must be in (0, 0.5)")
	}
	if cfg.Variance.Step <= 0 || cfg.Variance.HessianStep <= 0 {
		return errors.ConfigInvalid("variance.step and variance.hessian_step must be positive")
	}
	for _, f := range cfg.Output.Formats {
		switch f {
		case FormatCSV, FormatXLSX, FormatMarkdown, FormatHTML, FormatManifest:
		default:
			return errors.ConfigInvalid(fmt.Sprintf("unknown output format %q", f))
		}
	}
	if cfg.Output.Decimals < 0 {
		return errors.ConfigInvalid("output.decimals cannot be negative")
	}
	return nil
}

// ParamNames returns the configured parameter names in order
func (c *Config) ParamNames() []string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		names[i] = p.Name
	}
	return names
}

// SamplePath resolves the data file for a sample
func (c *Config) SamplePath(s SampleConfig) string {
	if s.Path != "" {
		return s.Path
	}
	return c.Data.Path
}

func samplesHavePaths(samples []SampleConfig) bool {
	if len(samples) == 0 {
		return false
	}
	for _, s := range samples {
		if s.Path == "" {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
