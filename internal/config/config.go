// Package config provides configuration management for the velocity pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"neo-velocity-lab/internal/orbit"
)

// Config represents the pipeline configuration.
type Config struct {
	Physics  PhysicsConfig  `yaml:"physics"`
	Solver   SolverConfig   `yaml:"solver"`
	Mass     MassConfig     `yaml:"mass"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
}

// PhysicsConfig holds the constants of the primary body.
type PhysicsConfig struct {
	Primary               string  `yaml:"primary"`
	GravitationalConstant float64 `yaml:"gravitational_constant"` // m^3 kg^-1 s^-2
	PrimaryMass           float64 `yaml:"primary_mass"`           // kg
	AstronomicalUnit      float64 `yaml:"astronomical_unit"`      // m
}

// SolverConfig configures the Kepler iteration.
type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
}

// MassConfig configures the mass estimate.
type MassConfig struct {
	Density float64 `yaml:"density"` // kg/m^3
}

// PipelineConfig contains batch-run settings.
type PipelineConfig struct {
	Input           string `yaml:"input"`
	Output          string `yaml:"output"`
	Summary         string `yaml:"summary"` // optional markdown summary path
	Filter          string `yaml:"filter"`  // optional CEL expression
	Workers         int    `yaml:"workers"`
	SkipUnparseable bool   `yaml:"skip_unparseable"` // count bad rows instead of aborting
}

// StorageConfig contains optional result sinks.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// ServerConfig contains HTTP service settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// MemoryRetention is the number of runs kept when no database is
	// configured. 0 keeps every run.
	MemoryRetention int `yaml:"memory_retention"`
}

// Default returns the reference configuration: heliocentric constants,
// 1e-6 rad tolerance, stony density and the original file names.
func Default() *Config {
	sun := orbit.SunConstants()
	return &Config{
		Physics: PhysicsConfig{
			Primary:               "Sun",
			GravitationalConstant: sun.G,
			PrimaryMass:           sun.PrimaryMass,
			AstronomicalUnit:      sun.AU,
		},
		Solver: SolverConfig{
			Tolerance:     orbit.DefaultTolerance,
			MaxIterations: orbit.DefaultMaxIterations,
		},
		Mass: MassConfig{
			Density: orbit.ReferenceDensity,
		},
		Pipeline: PipelineConfig{
			Input:   "./raw_data.csv",
			Output:  "./output_data.csv",
			Workers: runtime.GOMAXPROCS(0),
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MemoryRetention: 100,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Constants().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("physics: %w", err))
	}
	if c.Solver.Tolerance <= 0 {
		errs = append(errs, fmt.Errorf("solver.tolerance must be > 0, got %g", c.Solver.Tolerance))
	}
	if c.Solver.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("solver.max_iterations must be > 0, got %d", c.Solver.MaxIterations))
	}
	if c.Mass.Density <= 0 {
		errs = append(errs, fmt.Errorf("mass.density must be > 0, got %g", c.Mass.Density))
	}
	if c.Pipeline.Workers <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be > 0, got %d", c.Pipeline.Workers))
	}
	if c.Server.MemoryRetention < 0 {
		errs = append(errs, fmt.Errorf("server.memory_retention must be >= 0, got %d", c.Server.MemoryRetention))
	}
	return errors.Join(errs...)
}

// Constants returns the physics section as orbit.Constants.
func (c *Config) Constants() orbit.Constants {
	return orbit.Constants{
		G:           c.Physics.GravitationalConstant,
		PrimaryMass: c.Physics.PrimaryMass,
		AU:          c.Physics.AstronomicalUnit,
	}
}

// KeplerSolver returns the Kepler solver settings.
func (c *Config) KeplerSolver() orbit.Solver {
	return orbit.Solver{
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
	}
}

// Calculator builds a velocity calculator from the physics and solver sections.
func (c *Config) Calculator() *orbit.Calculator {
	return orbit.NewCalculator(c.Constants()).WithSolver(c.KeplerSolver())
}
