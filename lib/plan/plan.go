// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package plan assembles the planning stages into the single plan
// document the pipeline executes from.
//
// [Assemble] is a pure function of its captured inputs: version
// resolution, test-run scoping, cache-seed composition, matrix
// expansion, and job gating all happen here, once, before any job is
// scheduled. Commands capture repository and trigger state up front
// and hand it in; the assembly itself touches no repository, no
// network, and no clock, so the same inputs always yield the same
// document.
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gantry-build/gantry/lib/buildmatrix"
	"github.com/gantry-build/gantry/lib/cacheseed"
	"github.com/gantry-build/gantry/lib/changeset"
	"github.com/gantry-build/gantry/lib/classify"
	"github.com/gantry-build/gantry/lib/jobgraph"
	"github.com/gantry-build/gantry/lib/saltver"
	"github.com/gantry-build/gantry/lib/testrun"
	"github.com/gantry-build/gantry/lib/trigger"
)

// Inputs are the captured, immutable inputs to plan assembly.
type Inputs struct {
	// Event is the triggering event.
	Event trigger.Event

	// Changes is the captured change set. May be nil for trigger
	// kinds that force a full run.
	Changes *changeset.ChangeSet

	// Rules is the category rule set. Nil selects the embedded
	// default.
	Rules *classify.RuleSet

	// VersionOverride is an explicit version supplied by the
	// operator; empty means derive from tags.
	VersionOverride string

	// Tags is the repository tag list, ascending version order.
	Tags []string

	// Changelog is the captured changelog state.
	Changelog saltver.ChangelogState

	// SkipTests and SkipPkgTests narrow the computed category set.
	SkipTests    bool
	SkipPkgTests bool

	// Environment is the pipeline environment name (ci, nightly,
	// staging). Enters the cache seed and the signing decision.
	Environment string

	// SigningSecretsConfigured reports whether signing secrets are
	// present in the run's environment.
	SigningSecretsConfigured bool

	// SigningEnvironments is the allow-list of environments permitted
	// to sign.
	SigningEnvironments []string

	// Matrix is the platform declaration. A zero value selects
	// [buildmatrix.DefaultDecl].
	Matrix buildmatrix.Decl

	// Graph is the job graph. Nil selects [jobgraph.Default].
	Graph *jobgraph.Graph

	// LinuxARMRunner is the runner label recorded for linux/arm64
	// jobs.
	LinuxARMRunner string

	// Workflow names the workflow for the concurrency group key.
	Workflow string

	// SeedBase is the static base cache-seed value, bumped manually
	// to invalidate all caches at once.
	SeedBase string

	// SeedFiles are dependency-manifest paths hashed into the cache
	// seed, relative to SeedRoot. Order does not matter.
	SeedRoot  string
	SeedFiles []string
}

// TestRunDoc is the test-run section of the plan document.
type TestRunDoc struct {
	Type       testrun.Type `json:"type" yaml:"type"`
	Categories []string     `json:"categories" yaml:"categories"`
	Reason     string       `json:"reason" yaml:"reason"`
}

// PlatformMatrix is a matrix section keyed by platform.
type PlatformMatrix struct {
	Linux   []buildmatrix.Entry `json:"linux" yaml:"linux"`
	Macos   []buildmatrix.Entry `json:"macos" yaml:"macos"`
	Windows []buildmatrix.Entry `json:"windows" yaml:"windows"`
}

// Concurrency is the run-concurrency section of the plan document.
type Concurrency struct {
	// Group is the concurrency group key. Runs sharing a group
	// contend with each other.
	Group string `json:"group" yaml:"group"`

	// CancelInProgress cancels an in-flight run of the same group
	// when a newer one starts. Always false for scheduled runs, which
	// must complete.
	CancelInProgress bool `json:"cancel-in-progress" yaml:"cancel-in-progress"`
}

// Document is the single plan every downstream job reads. Serialized
// once at the end of planning; treated as read-only afterward.
type Document struct {
	SaltVersion     string          `json:"salt-version" yaml:"salt-version"`
	ReleaseTag      bool            `json:"release-tag" yaml:"release-tag"`
	ChangelogTarget string          `json:"changelog-target" yaml:"changelog-target"`
	CacheSeed       string          `json:"cache-seed" yaml:"cache-seed"`
	TestRun         TestRunDoc      `json:"testrun" yaml:"testrun"`
	BuildMatrix     PlatformMatrix  `json:"build-matrix" yaml:"build-matrix"`
	PkgTestMatrix   PlatformMatrix  `json:"pkg-test-matrix" yaml:"pkg-test-matrix"`
	Jobs            map[string]bool `json:"jobs" yaml:"jobs"`
	LinuxARMRunner  string          `json:"linux_arm_runner" yaml:"linux_arm_runner"`
	Concurrency     Concurrency     `json:"concurrency" yaml:"concurrency"`

	// ChangedFiles is the selective-run file listing. Empty for full
	// and skip runs.
	ChangedFiles []string `json:"changed-files,omitempty" yaml:"changed-files,omitempty"`
}

// Assemble runs every planning stage and returns the plan document.
// Any error aborts planning before a single job is scheduled.
func Assemble(inputs Inputs) (*Document, error) {
	version, err := saltver.Resolve(inputs.VersionOverride, inputs.Event,
		inputs.Tags, inputs.Changelog)
	if err != nil {
		return nil, fmt.Errorf("resolving release version: %w", err)
	}

	runPlan, err := testrun.Decide(testrun.Inputs{
		Event:        inputs.Event,
		Changes:      inputs.Changes,
		Rules:        inputs.Rules,
		SkipTests:    inputs.SkipTests,
		SkipPkgTests: inputs.SkipPkgTests,
	})
	if err != nil {
		return nil, fmt.Errorf("deciding test-run scope: %w", err)
	}

	seed, err := buildSeed(inputs, version)
	if err != nil {
		return nil, err
	}

	decl := inputs.Matrix
	if len(decl.Platforms) == 0 {
		decl = buildmatrix.DefaultDecl()
	}
	matrix, err := buildmatrix.Build(decl, runPlan, buildmatrix.SigningConfig{
		SecretsConfigured:   inputs.SigningSecretsConfigured,
		Environment:         inputs.Environment,
		AllowedEnvironments: inputs.SigningEnvironments,
	})
	if err != nil {
		return nil, fmt.Errorf("expanding build matrix: %w", err)
	}

	graph := inputs.Graph
	if graph == nil {
		graph = jobgraph.Default()
	}
	jobs := make(map[string]bool, len(graph.TopoOrder()))
	for _, name := range graph.TopoOrder() {
		enabled, err := graph.ShouldRun(name, runPlan)
		if err != nil {
			return nil, fmt.Errorf("gating job %s: %w", name, err)
		}
		jobs[name] = enabled
	}

	buildPart, pkgPart := splitMatrix(matrix)

	return &Document{
		SaltVersion:     version.Version.String(),
		ReleaseTag:      version.IsReleaseTag,
		ChangelogTarget: version.ChangelogTarget,
		CacheSeed:       seed,
		TestRun: TestRunDoc{
			Type:       runPlan.Type,
			Categories: runPlan.Categories,
			Reason:     runPlan.Reason,
		},
		BuildMatrix:    buildPart,
		PkgTestMatrix:  pkgPart,
		Jobs:           jobs,
		LinuxARMRunner: inputs.LinuxARMRunner,
		Concurrency:    concurrency(inputs.Workflow, inputs.Event),
		ChangedFiles:   runPlan.ChangedFiles,
	}, nil
}

// buildSeed composes the cache seed: base, resolved version,
// environment, and (when manifest files are provided) an
// order-independent digest of their contents.
func buildSeed(inputs Inputs, version saltver.ReleaseVersion) (string, error) {
	scopes := []cacheseed.Scope{
		{Name: "salt-version", Value: version.Version.String()},
		{Name: "environment", Value: inputs.Environment},
	}
	if len(inputs.SeedFiles) > 0 {
		digest, err := cacheseed.HashFiles(inputs.SeedRoot, inputs.SeedFiles)
		if err != nil {
			return "", fmt.Errorf("hashing seed files: %w", err)
		}
		scopes = append(scopes, cacheseed.Scope{Name: "requirements", Value: digest})
	}

	seed, err := cacheseed.Seed(inputs.SeedBase, scopes...)
	if err != nil {
		return "", fmt.Errorf("composing cache seed: %w", err)
	}
	return seed, nil
}

// splitMatrix separates matrix entries into the build and
// package-test sections, each keyed by platform.
func splitMatrix(entries []buildmatrix.Entry) (build, pkg PlatformMatrix) {
	for _, entry := range entries {
		target := &build
		if entry.JobKind.IsPackaging() {
			target = &pkg
		}
		switch entry.Platform {
		case "linux":
			target.Linux = append(target.Linux, entry)
		case "macos":
			target.Macos = append(target.Macos, entry)
		case "windows":
			target.Windows = append(target.Windows, entry)
		}
	}
	return build, pkg
}

// concurrency computes the run-concurrency section. The group key is
// workflow, event kind, and branch, so pushes to different branches
// never cancel each other.
func concurrency(workflow string, event trigger.Event) Concurrency {
	group := strings.Join([]string{workflow, string(event.Kind), event.Branch()}, "-")
	return Concurrency{
		Group:            group,
		CancelInProgress: event.Kind != trigger.Schedule,
	}
}

// JSON renders the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML renders the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return data, nil
}

// ParseJSON decodes a plan document previously rendered with
// [Document.JSON]. Unknown fields are rejected so a stale reader
// cannot silently drop plan content.
func ParseJSON(data []byte) (*Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &doc, nil
}
