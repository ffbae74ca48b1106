// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package plancmd implements "gantry plan", the planning entry point.
// It captures repository and trigger state, runs every planning stage,
// and writes the plan document the downstream jobs execute from.
package plancmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/gantry-build/gantry/cmd/gantry/cli"
	"github.com/gantry-build/gantry/lib/artifact"
	"github.com/gantry-build/gantry/lib/buildmatrix"
	"github.com/gantry-build/gantry/lib/changeset"
	"github.com/gantry-build/gantry/lib/classify"
	"github.com/gantry-build/gantry/lib/config"
	"github.com/gantry-build/gantry/lib/git"
	"github.com/gantry-build/gantry/lib/plan"
	"github.com/gantry-build/gantry/lib/saltver"
	"github.com/gantry-build/gantry/lib/testrun"
	"github.com/gantry-build/gantry/lib/trigger"
)

type planParams struct {
	Config       string   `flag:"config,c" desc:"path to gantry.yaml (defaults to GANTRY_CONFIG)"`
	Event        string   `flag:"event" desc:"trigger kind: push, pull_request, schedule, tag, workflow_dispatch"`
	Ref          string   `flag:"ref" desc:"git ref the event points at"`
	Labels       []string `flag:"label" desc:"pull request labels (repeatable)"`
	Actor        string   `flag:"actor" desc:"username that caused the event"`
	Base         string   `flag:"base" desc:"diff base for change capture (defaults to git.base_branch)"`
	Head         string   `flag:"head" default:"HEAD" desc:"diff head for change capture"`
	SaltVersion  string   `flag:"salt-version" desc:"explicit version override"`
	NextMajor    bool     `flag:"next-major" desc:"changelog targets the next major release"`
	SkipTests    bool     `flag:"skip-tests" desc:"disable test job categories"`
	SkipPkgTests bool     `flag:"skip-pkg-tests" desc:"disable package-test job categories"`
	Signing      bool     `flag:"signing-secrets" desc:"signing secrets are configured for this run"`
	Workflow     string   `flag:"workflow" default:"ci" desc:"workflow name for the concurrency group"`
	Output       string   `flag:"output,o" default:"-" desc:"plan output path, - for stdout"`
	Format       string   `flag:"format" default:"json" desc:"plan output format: json or yaml"`
}

// Command returns the "plan" command.
func Command() *cli.Command {
	var params planParams

	return &cli.Command{
		Name:    "plan",
		Summary: "Compute the pipeline plan for a trigger event",
		Usage:   "gantry plan --event <kind> [flags]",
		Description: `Compute the full pipeline plan for one trigger event.

Planning resolves the release version, classifies the changed files,
decides between a full, selective, or skipped test run, composes the
cache seed, expands the build matrix, and gates every job in the
graph. The resulting document is the single input every downstream
job reads; planning errors abort before any job is scheduled.

For selective runs the changed-file listing is also persisted as a
content-addressed artifact for targeted test selection.`,
		Examples: []cli.Example{
			{
				Description: "Plan a pull request run",
				Command:     "gantry plan --event pull_request --ref refs/heads/master --label test:full",
			},
			{
				Description: "Plan a release tag run",
				Command:     "gantry plan --event tag --ref refs/tags/v3007.1 -o plan.json",
			},
			{
				Description: "Plan a nightly run with an explicit config",
				Command:     "gantry plan --event schedule --ref master -c nightly.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("plan", &params)
		},
		Run: func(args []string) error {
			return runPlan(&params)
		},
	}
}

func runPlan(params *planParams) error {
	ctx := context.Background()
	logger := cli.NewCommandLogger().With("command", "plan")

	cfg, err := loadConfig(params.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	kind, err := trigger.ParseKind(params.Event)
	if err != nil {
		return err
	}
	event := trigger.Event{
		Kind:   kind,
		Ref:    params.Ref,
		Labels: params.Labels,
		Actor:  params.Actor,
	}

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	repo := git.NewRepository(cfg.Git.Dir)
	tags, err := repo.Tags(ctx)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}

	changes, err := captureChanges(ctx, repo, cfg, params, event)
	if err != nil {
		return err
	}

	doc, err := plan.Assemble(plan.Inputs{
		Event:                    event,
		Changes:                  changes,
		Rules:                    rules,
		VersionOverride:          params.SaltVersion,
		Tags:                     tags,
		Changelog:                saltver.ChangelogState{MajorBump: params.NextMajor},
		SkipTests:                params.SkipTests,
		SkipPkgTests:             params.SkipPkgTests,
		Environment:              string(cfg.Environment),
		SigningSecretsConfigured: params.Signing,
		SigningEnvironments:      cfg.Matrix.Signing.Environments,
		Matrix:                   matrixDecl(cfg),
		LinuxARMRunner:           cfg.Matrix.LinuxARMRunner,
		Workflow:                 params.Workflow,
		SeedBase:                 cfg.Seed.Base,
		SeedRoot:                 cfg.Git.Dir,
		SeedFiles:                cfg.Seed.Files,
	})
	if err != nil {
		return err
	}

	logger.Info("plan computed",
		"testrun", doc.TestRun.Type,
		"reason", doc.TestRun.Reason,
		"salt_version", doc.SaltVersion,
		"cache_seed", doc.CacheSeed)

	if doc.TestRun.Type == testrun.Selective {
		ref, err := artifact.PersistChangedFiles(cfg.Artifacts.Dir, doc.ChangedFiles)
		if err != nil {
			return err
		}
		logger.Info("changed-files artifact persisted",
			"name", ref.Name, "path", ref.CompressedPath)
	}

	return writeDocument(doc, params.Output, params.Format)
}

// loadConfig resolves the configuration: the --config flag first, then
// GANTRY_CONFIG, then built-in defaults. Planning must work on a bare
// runner with no config file, so unlike most settings lookups the
// defaults are a legitimate final fallback here.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("GANTRY_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func loadRules(cfg *config.Config) (*classify.RuleSet, error) {
	if cfg.Rules.File == "" {
		return classify.Default(), nil
	}
	return classify.LoadRules(cfg.Rules.File)
}

// captureChanges diffs base...head for the trigger kinds that scope
// by change set. Tag, schedule, and dispatch triggers force a full
// run before classification, so no diff is taken for them.
func captureChanges(ctx context.Context, repo *git.Repository, cfg *config.Config, params *planParams, event trigger.Event) (*changeset.ChangeSet, error) {
	switch event.Kind {
	case trigger.Tag, trigger.Schedule, trigger.WorkflowDispatch:
		return nil, nil
	}

	base := params.Base
	if base == "" {
		base = cfg.Git.BaseBranch
	}
	changes, err := changeset.Capture(ctx, repo, base, params.Head)
	if err != nil {
		return nil, fmt.Errorf("capturing changes %s...%s: %w", base, params.Head, err)
	}
	return changes, nil
}

func matrixDecl(cfg *config.Config) buildmatrix.Decl {
	return buildmatrix.Decl{Platforms: cfg.Matrix.Platforms}
}

func writeDocument(doc *plan.Document, output, format string) error {
	var data []byte
	var err error
	switch format {
	case "json":
		data, err = doc.JSON()
	case "yaml":
		data, err = doc.YAML()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return err
	}

	if output == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("writing plan to %s: %w", output, err)
	}
	return nil
}
