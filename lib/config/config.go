// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Gantry commands.
//
// Configuration is loaded from a single file specified by:
//   - GANTRY_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable pipeline planning with no hidden overrides: the same config file
// and the same repository state always produce the same plan.
//
// The config file may contain environment-specific sections (ci, nightly,
// staging) that override base values when the environment matches.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/gantry-build/gantry/lib/buildmatrix"
)

// Environment represents the pipeline execution environment.
type Environment string

const (
	// CI is the per-change pipeline triggered by pushes and pull requests.
	CI Environment = "ci"
	// Nightly is the scheduled pipeline; it always runs the full suite.
	Nightly Environment = "nightly"
	// Staging is the release-candidate pipeline that exercises signing.
	Staging Environment = "staging"
)

// Config is the master configuration for Gantry.
type Config struct {
	// Environment identifies the pipeline type (ci, nightly, staging).
	Environment Environment `yaml:"environment"`

	// Rules configures change classification.
	Rules RulesConfig `yaml:"rules"`

	// Matrix configures build-matrix expansion.
	Matrix MatrixConfig `yaml:"matrix"`

	// Seed configures cache-seed composition.
	Seed SeedConfig `yaml:"seed"`

	// Artifacts configures where plan outputs are persisted.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Git configures repository access.
	Git GitConfig `yaml:"git"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	CI      *ConfigOverrides `yaml:"ci,omitempty"`
	Nightly *ConfigOverrides `yaml:"nightly,omitempty"`
	Staging *ConfigOverrides `yaml:"staging,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Rules     *RulesConfig     `yaml:"rules,omitempty"`
	Matrix    *MatrixConfig    `yaml:"matrix,omitempty"`
	Seed      *SeedConfig      `yaml:"seed,omitempty"`
	Artifacts *ArtifactsConfig `yaml:"artifacts,omitempty"`
	Git       *GitConfig       `yaml:"git,omitempty"`
}

// RulesConfig configures change classification.
type RulesConfig struct {
	// File is the path to a JSONC rules file. Empty means the
	// embedded default rules.
	File string `yaml:"file"`
}

// MatrixConfig configures build-matrix expansion.
type MatrixConfig struct {
	// Platforms declares the platform/arch/kind combinations to
	// expand. Empty means the built-in declaration.
	Platforms []buildmatrix.PlatformDecl `yaml:"platforms,omitempty"`

	// Signing configures package-signing capability.
	Signing SigningConfig `yaml:"signing"`

	// LinuxARMRunner is the runner label for linux/arm64 jobs.
	// Default: ubuntu-24.04-arm
	LinuxARMRunner string `yaml:"linux_arm_runner"`
}

// SigningConfig configures package-signing capability. Signing is
// capability metadata on matrix entries; it never adds or removes jobs.
type SigningConfig struct {
	// Environments lists the environments in which signing may run
	// when the signing secrets are configured.
	// Default: staging
	Environments []string `yaml:"environments,omitempty"`
}

// SeedConfig configures cache-seed composition.
type SeedConfig struct {
	// Base is the static base seed value, bumped manually to
	// invalidate every cache partition at once.
	Base string `yaml:"base"`

	// Files are dependency-manifest paths hashed into the seed,
	// relative to the repository root. Order does not matter.
	Files []string `yaml:"files,omitempty"`
}

// ArtifactsConfig configures where plan outputs are persisted.
type ArtifactsConfig struct {
	// Dir is the directory for plan and changed-files artifacts.
	// Default: ${GANTRY_ROOT:-.gantry}/artifacts
	Dir string `yaml:"dir"`
}

// GitConfig configures repository access.
type GitConfig struct {
	// Dir is the repository working directory. Default: current directory.
	Dir string `yaml:"dir"`

	// BaseBranch is the merge-base reference for change capture when
	// the trigger event does not name one. Default: origin/master
	BaseBranch string `yaml:"base_branch"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	return &Config{
		Environment: CI,
		Rules: RulesConfig{
			File: "",
		},
		Matrix: MatrixConfig{
			Signing: SigningConfig{
				Environments: []string{"staging"},
			},
			LinuxARMRunner: "ubuntu-24.04-arm",
		},
		Seed: SeedConfig{
			Base: "gantry-seed-1",
		},
		Artifacts: ArtifactsConfig{
			Dir: "${GANTRY_ROOT:-.gantry}/artifacts",
		},
		Git: GitConfig{
			Dir:        ".",
			BaseBranch: "origin/master",
		},
	}
}

// Load loads configuration from the GANTRY_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if GANTRY_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("GANTRY_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("GANTRY_CONFIG environment variable not set; " +
			"set it to the path of your gantry.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do
// not override config values. The only expansion performed is ${VAR} and
// ${VAR:-default} patterns in paths for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply environment-specific overrides (ci/nightly/staging sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${VAR} patterns in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case CI:
		overrides = c.CI
	case Nightly:
		overrides = c.Nightly
	case Staging:
		overrides = c.Staging
	}

	if overrides == nil {
		return
	}

	if overrides.Rules != nil {
		if overrides.Rules.File != "" {
			c.Rules.File = overrides.Rules.File
		}
	}

	if overrides.Matrix != nil {
		if len(overrides.Matrix.Platforms) > 0 {
			c.Matrix.Platforms = overrides.Matrix.Platforms
		}
		if len(overrides.Matrix.Signing.Environments) > 0 {
			c.Matrix.Signing.Environments = overrides.Matrix.Signing.Environments
		}
		if overrides.Matrix.LinuxARMRunner != "" {
			c.Matrix.LinuxARMRunner = overrides.Matrix.LinuxARMRunner
		}
	}

	if overrides.Seed != nil {
		if overrides.Seed.Base != "" {
			c.Seed.Base = overrides.Seed.Base
		}
		if len(overrides.Seed.Files) > 0 {
			c.Seed.Files = overrides.Seed.Files
		}
	}

	if overrides.Artifacts != nil {
		if overrides.Artifacts.Dir != "" {
			c.Artifacts.Dir = overrides.Artifacts.Dir
		}
	}

	if overrides.Git != nil {
		if overrides.Git.Dir != "" {
			c.Git.Dir = overrides.Git.Dir
		}
		if overrides.Git.BaseBranch != "" {
			c.Git.BaseBranch = overrides.Git.BaseBranch
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"GANTRY_ROOT": os.Getenv("GANTRY_ROOT"),
		"HOME":        os.Getenv("HOME"),
	}

	c.Rules.File = expandVars(c.Rules.File, vars)
	c.Artifacts.Dir = expandVars(c.Artifacts.Dir, vars)
	c.Git.Dir = expandVars(c.Git.Dir, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Environment != CI && c.Environment != Nightly && c.Environment != Staging {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}
	if c.Seed.Base == "" {
		return fmt.Errorf("seed.base is required")
	}
	if c.Artifacts.Dir == "" {
		return fmt.Errorf("artifacts.dir is required")
	}
	if c.Git.BaseBranch == "" {
		return fmt.Errorf("git.base_branch is required")
	}
	return nil
}
