// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != CI {
		t.Errorf("expected environment=ci, got %s", cfg.Environment)
	}
	if cfg.Git.BaseBranch != "origin/master" {
		t.Errorf("expected base_branch=origin/master, got %s", cfg.Git.BaseBranch)
	}
	if cfg.Matrix.LinuxARMRunner != "ubuntu-24.04-arm" {
		t.Errorf("expected linux_arm_runner=ubuntu-24.04-arm, got %s", cfg.Matrix.LinuxARMRunner)
	}
	if len(cfg.Matrix.Signing.Environments) != 1 || cfg.Matrix.Signing.Environments[0] != "staging" {
		t.Errorf("expected signing environments [staging], got %v", cfg.Matrix.Signing.Environments)
	}
}

func TestLoad_RequiresGantryConfig(t *testing.T) {
	// Save and restore GANTRY_CONFIG.
	origConfig := os.Getenv("GANTRY_CONFIG")
	defer os.Setenv("GANTRY_CONFIG", origConfig)

	// Unset GANTRY_CONFIG - Load() should fail.
	os.Unsetenv("GANTRY_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when GANTRY_CONFIG not set, got nil")
	}

	expectedMsg := "GANTRY_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gantry.yaml")

	configContent := `
environment: ci
rules:
  file: /etc/gantry/rules.jsonc
git:
  base_branch: origin/main
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Rules.File != "/etc/gantry/rules.jsonc" {
		t.Errorf("rules.file = %q", cfg.Rules.File)
	}
	if cfg.Git.BaseBranch != "origin/main" {
		t.Errorf("base_branch = %q", cfg.Git.BaseBranch)
	}
	// Unset fields keep defaults.
	if cfg.Matrix.LinuxARMRunner != "ubuntu-24.04-arm" {
		t.Errorf("linux_arm_runner = %q, want default", cfg.Matrix.LinuxARMRunner)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gantry.yaml")

	configContent := `
environment: staging
matrix:
  linux_arm_runner: ubuntu-22.04-arm
staging:
  matrix:
    signing:
      environments: [staging, release]
  git:
    base_branch: origin/release
nightly:
  git:
    base_branch: origin/nightly
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	// The staging section applies; the nightly section does not.
	if cfg.Git.BaseBranch != "origin/release" {
		t.Errorf("base_branch = %q, want origin/release", cfg.Git.BaseBranch)
	}
	if len(cfg.Matrix.Signing.Environments) != 2 {
		t.Errorf("signing environments = %v, want [staging release]",
			cfg.Matrix.Signing.Environments)
	}
	// Base values not named in the override survive.
	if cfg.Matrix.LinuxARMRunner != "ubuntu-22.04-arm" {
		t.Errorf("linux_arm_runner = %q", cfg.Matrix.LinuxARMRunner)
	}
}

func TestVariableExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "gantry.yaml")

	t.Setenv("GANTRY_ROOT", "/var/lib/gantry")

	configContent := `
artifacts:
  dir: ${GANTRY_ROOT}/artifacts
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Artifacts.Dir != "/var/lib/gantry/artifacts" {
		t.Errorf("artifacts.dir = %q", cfg.Artifacts.Dir)
	}
}

func TestVariableExpansionDefault(t *testing.T) {
	os.Unsetenv("GANTRY_ROOT")
	cfg := Default()
	cfg.expandVariables()
	if cfg.Artifacts.Dir != ".gantry/artifacts" {
		t.Errorf("artifacts.dir = %q, want .gantry/artifacts", cfg.Artifacts.Dir)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	cfg.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown environment accepted")
	}

	cfg = Default()
	cfg.Git.BaseBranch = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty base_branch accepted")
	}
}
