// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildmatrix expands the static platform/architecture/job
// declaration into the concrete list of job instances to launch. The
// expansion is filtered by the test-run plan's enabled categories and
// annotated with signing capability; signing never drops an entry —
// an unsigned build still validates compilation.
package buildmatrix

import (
	"fmt"
	"slices"

	"github.com/gantry-build/gantry/lib/testrun"
)

// JobKind is the kind of job a matrix entry launches.
type JobKind string

const (
	// KindBuild builds the onedir runtime bundle for a platform.
	KindBuild JobKind = "build"
	// KindTest runs the test suite against the onedir build.
	KindTest JobKind = "test"
	// KindPkgBuild builds OS packages from the onedir bundle.
	KindPkgBuild JobKind = "pkg-build"
	// KindPkgTest installs and exercises the built packages.
	KindPkgTest JobKind = "pkg-test"
	// KindNSISTest exercises the Windows NSIS installer.
	KindNSISTest JobKind = "nsis-test"
)

// kindRequirements maps each job kind to the categories that justify
// scheduling it. An entry is emitted when any of its kind's categories
// is enabled in the plan. Full plans enable every leaf category (minus
// skip-flag narrowing), so gating reduces to the skip flags there.
var kindRequirements = map[JobKind][]string{
	KindBuild:    {"salt", "tests", "pkg_tests", "nsis_tests", "pkg_requirements", "test_requirements"},
	KindTest:     {"salt", "tests", "test_requirements"},
	KindPkgBuild: {"pkg_tests"},
	KindPkgTest:  {"pkg_tests"},
	KindNSISTest: {"nsis_tests"},
}

// PlatformDecl declares one platform's architectures and applicable
// job kinds. Platform names are OS families ("linux", "macos",
// "windows") — finer-grained runner selection is the executor's
// lookup, not a matrix decision.
type PlatformDecl struct {
	Platform string            `yaml:"platform" json:"platform"`
	Archs    []string          `yaml:"archs" json:"archs"`
	Kinds    []JobKind         `yaml:"kinds" json:"kinds"`
	Extra    map[string]string `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Decl is the static platform declaration, ordered. Entry emission
// preserves this order.
type Decl struct {
	Platforms []PlatformDecl `yaml:"platforms" json:"platforms"`
}

// DefaultDecl returns the standard Salt release matrix: linux and
// macos on x86_64 and arm64, windows on amd64, NSIS jobs on windows
// only.
func DefaultDecl() Decl {
	return Decl{Platforms: []PlatformDecl{
		{
			Platform: "linux",
			Archs:    []string{"x86_64", "arm64"},
			Kinds:    []JobKind{KindBuild, KindTest, KindPkgBuild, KindPkgTest},
		},
		{
			Platform: "macos",
			Archs:    []string{"x86_64", "arm64"},
			Kinds:    []JobKind{KindBuild, KindTest, KindPkgBuild, KindPkgTest},
		},
		{
			Platform: "windows",
			Archs:    []string{"amd64"},
			Kinds:    []JobKind{KindBuild, KindTest, KindPkgBuild, KindPkgTest, KindNSISTest},
		},
	}}
}

// SigningConfig describes signing availability for this run.
type SigningConfig struct {
	// SecretsConfigured reports whether per-platform signing secrets
	// are present in the run's environment.
	SecretsConfigured bool

	// Environment is the run's deployment environment name.
	Environment string

	// AllowedEnvironments is the allow-list of environments permitted
	// to sign. Empty means signing is never enabled.
	AllowedEnvironments []string
}

// capable reports whether entries in this run may be signed.
func (s SigningConfig) capable() bool {
	return s.SecretsConfigured && slices.Contains(s.AllowedEnvironments, s.Environment)
}

// Entry is one concrete job instance to launch.
type Entry struct {
	Platform string            `json:"platform" yaml:"platform"`
	Arch     string            `json:"arch" yaml:"arch"`
	JobKind  JobKind           `json:"job_kind" yaml:"job_kind"`
	Signing  bool              `json:"signing_capable" yaml:"signing_capable"`
	Extra    map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Build expands the declaration into the concrete matrix. Entries are
// deduplicated by (platform, arch, kind) with the first declaration
// winning, and emitted in declaration order. A skip plan yields an
// empty matrix.
func Build(decl Decl, plan testrun.Plan, signing SigningConfig) ([]Entry, error) {
	if plan.Type == testrun.Skip {
		return nil, nil
	}

	signingCapable := signing.capable()

	type entryKey struct {
		platform, arch string
		kind           JobKind
	}
	seen := make(map[entryKey]bool)

	var matrix []Entry
	for index, platform := range decl.Platforms {
		if platform.Platform == "" {
			return nil, fmt.Errorf("platforms[%d]: platform name is required", index)
		}
		if len(platform.Archs) == 0 {
			return nil, fmt.Errorf("platforms[%d] %q: at least one architecture is required", index, platform.Platform)
		}
		for _, kind := range platform.Kinds {
			required, known := kindRequirements[kind]
			if !known {
				return nil, fmt.Errorf("platforms[%d] %q: unknown job kind %q", index, platform.Platform, kind)
			}
			if !anyEnabled(plan, required) {
				continue
			}
			for _, arch := range platform.Archs {
				key := entryKey{platform.Platform, arch, kind}
				if seen[key] {
					continue
				}
				seen[key] = true
				matrix = append(matrix, Entry{
					Platform: platform.Platform,
					Arch:     arch,
					JobKind:  kind,
					Signing:  signingCapable,
					Extra:    platform.Extra,
				})
			}
		}
	}
	return matrix, nil
}

func anyEnabled(plan testrun.Plan, categories []string) bool {
	for _, category := range categories {
		if plan.Enabled(category) {
			return true
		}
	}
	return false
}

// IsPackaging reports whether the kind belongs in the package-test
// matrix rather than the build matrix.
func (k JobKind) IsPackaging() bool {
	switch k {
	case KindPkgBuild, KindPkgTest, KindNSISTest:
		return true
	default:
		return false
	}
}
