// Package config loads the ratetree run configuration from YAML and the environment.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/meenmo/ratetree/calibrate"
	"github.com/meenmo/ratetree/lattice"
	"github.com/meenmo/ratetree/marketdata"
)

// Config represents the complete run configuration
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Market  MarketConfig  `mapstructure:"market"`
	Solver  SolverConfig  `mapstructure:"solver"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ModelConfig holds the BDT lattice parameters
type ModelConfig struct {
	B             float64 `mapstructure:"b"`
	Steps         int     `mapstructure:"steps"`
	UpProbability float64 `mapstructure:"up_probability"`
	FaceValue     float64 `mapstructure:"face_value"`
	InitialGuess  float64 `mapstructure:"initial_guess"`
}

// MarketConfig holds quoted yields keyed by tenor ("1Y", "DGS10") in percent
type MarketConfig struct {
	Yields        map[string]float64 `mapstructure:"yields"`
	Extrapolation string             `mapstructure:"extrapolation"`
}

// SolverConfig mirrors calibrate.Config
type SolverConfig struct {
	ObjectiveTolerance float64 `mapstructure:"objective_tolerance"`
	GradientThreshold  float64 `mapstructure:"gradient_threshold"`
	MaxIterations      int     `mapstructure:"max_iterations"`
	MaxEvaluations     int     `mapstructure:"max_evaluations"`
	GradientStep       float64 `mapstructure:"gradient_step"`
	FallbackNelderMead bool    `mapstructure:"fallback_nelder_mead"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the optional Prometheus textfile destination
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// RATETREE_MODEL_STEPS overrides model.steps
	v.SetEnvPrefix("RATETREE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.b", 0.005)
	v.SetDefault("model.steps", 30)
	v.SetDefault("model.up_probability", 0.5)
	v.SetDefault("model.face_value", 100.0)
	v.SetDefault("model.initial_guess", calibrate.DefaultConfig.InitialGuess)

	v.SetDefault("market.extrapolation", "flat")

	v.SetDefault("solver.objective_tolerance", calibrate.DefaultConfig.ObjectiveTolerance)
	v.SetDefault("solver.gradient_threshold", calibrate.DefaultConfig.GradientThreshold)
	v.SetDefault("solver.max_iterations", calibrate.DefaultConfig.MaxIterations)
	v.SetDefault("solver.max_evaluations", calibrate.DefaultConfig.MaxEvaluations)
	v.SetDefault("solver.gradient_step", calibrate.DefaultConfig.GradientStep)
	v.SetDefault("solver.fallback_nelder_mead", calibrate.DefaultConfig.FallbackNelderMead)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if math.IsNaN(c.Model.B) || math.IsInf(c.Model.B, 0) {
		return fmt.Errorf("model.b must be finite")
	}
	if c.Model.Steps < 1 {
		return fmt.Errorf("model.steps must be at least 1")
	}
	if c.Model.UpProbability < 0 || c.Model.UpProbability > 1 {
		return fmt.Errorf("model.up_probability must be between 0.0 and 1.0")
	}
	if c.Model.FaceValue <= 0 {
		return fmt.Errorf("model.face_value must be positive")
	}

	if len(c.Market.Yields) == 0 {
		return fmt.Errorf("market.yields must contain at least one quote")
	}
	for tenor := range c.Market.Yields {
		if _, err := marketdata.ParseTenor(tenor); err != nil {
			return fmt.Errorf("market.yields: %w", err)
		}
	}
	if _, err := marketdata.ParseExtrapolation(c.Market.Extrapolation); err != nil {
		return fmt.Errorf("market.extrapolation must be one of: flat, none")
	}

	if c.Solver.MaxIterations < 1 {
		return fmt.Errorf("solver.max_iterations must be at least 1")
	}
	if c.Solver.MaxEvaluations < 0 {
		return fmt.Errorf("solver.max_evaluations must not be negative")
	}
	if c.Solver.GradientStep <= 0 {
		return fmt.Errorf("solver.gradient_step must be positive")
	}
	if c.Solver.ObjectiveTolerance < 0 || c.Solver.GradientThreshold < 0 {
		return fmt.Errorf("solver tolerances must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}

// CalibrationConfig converts the model and solver sections to calibrate.Config.
func (c *Config) CalibrationConfig() calibrate.Config {
	return calibrate.Config{
		InitialGuess:       c.Model.InitialGuess,
		ObjectiveTolerance: c.Solver.ObjectiveTolerance,
		GradientThreshold:  c.Solver.GradientThreshold,
		MaxIterations:      c.Solver.MaxIterations,
		MaxEvaluations:     c.Solver.MaxEvaluations,
		GradientStep:       c.Solver.GradientStep,
		FallbackNelderMead: c.Solver.FallbackNelderMead,
	}
}

// YieldSource serves the configured quotes.
func (c *Config) YieldSource() *marketdata.MapYieldSource {
	return marketdata.NewMapYieldSource(c.Market.Yields)
}

// Extrapolation returns the parsed extrapolation policy. Call after Validate.
func (c *Config) Extrapolation() marketdata.Extrapolation {
	policy, _ := marketdata.ParseExtrapolation(c.Market.Extrapolation)
	return policy
}

// Probabilities returns the risk-neutral transition probabilities.
func (c *Config) Probabilities() lattice.Probabilities {
	return lattice.NewProbabilities(c.Model.UpProbability)
}
