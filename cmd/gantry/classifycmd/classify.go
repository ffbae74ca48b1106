// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package classifycmd implements "gantry classify", a debugging aid
// that shows how a change set maps onto the category rules without
// running the rest of the planning pipeline.
package classifycmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/gantry-build/gantry/cmd/gantry/cli"
	"github.com/gantry-build/gantry/lib/changeset"
	"github.com/gantry-build/gantry/lib/classify"
	"github.com/gantry-build/gantry/lib/config"
	"github.com/gantry-build/gantry/lib/git"
)

type classifyParams struct {
	cli.JSONOutput
	Config string `flag:"config,c" desc:"path to gantry.yaml (defaults to GANTRY_CONFIG)"`
	Base   string `flag:"base" desc:"diff base (defaults to git.base_branch)"`
	Head   string `flag:"head" default:"HEAD" desc:"diff head"`
	Paths  bool   `flag:"paths" desc:"list the matching paths per category"`
}

// categoryOutput is the per-category JSON shape.
type categoryOutput struct {
	Category string   `json:"category"`
	Matched  bool     `json:"matched"`
	Paths    []string `json:"paths,omitempty"`
}

// Command returns the "classify" command.
func Command() *cli.Command {
	var params classifyParams

	return &cli.Command{
		Name:    "classify",
		Summary: "Show which categories a change set matches",
		Usage:   "gantry classify [paths...] [flags]",
		Description: `Classify changed files against the category rules.

With positional paths, classifies exactly those paths. Without, diffs
base...head in the configured repository and classifies the result.
This is the same classification the planner runs; use it to check why
a change did or did not trigger a category.`,
		Examples: []cli.Example{
			{
				Description: "Classify explicit paths",
				Command:     "gantry classify salt/modules/cmdmod.py doc/ref/x.rst",
			},
			{
				Description: "Classify the current branch against master",
				Command:     "gantry classify --base origin/master --paths",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("classify", &params)
		},
		Run: func(args []string) error {
			return runClassify(&params, args)
		},
	}
}

func runClassify(params *classifyParams, args []string) error {
	cfg, err := loadConfig(params.Config)
	if err != nil {
		return err
	}

	rules := classify.Default()
	if cfg.Rules.File != "" {
		rules, err = classify.LoadRules(cfg.Rules.File)
		if err != nil {
			return err
		}
	}

	changes, err := resolveChanges(params, cfg, args)
	if err != nil {
		return err
	}

	result, err := rules.Classify(changes)
	if err != nil {
		return err
	}

	output := make([]categoryOutput, 0, len(rules.Names()))
	for _, name := range rules.Names() {
		entry := categoryOutput{
			Category: name,
			Matched:  result.Matched(name),
		}
		if params.Paths {
			entry.Paths = result.Paths(name)
		}
		output = append(output, entry)
	}

	if done, err := params.EmitJSON(output); done {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	for _, entry := range output {
		mark := " "
		if entry.Matched {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\n", mark, entry.Category)
		if params.Paths {
			for _, path := range entry.Paths {
				fmt.Fprintf(tw, "\t  %s\n", path)
			}
		}
	}
	return tw.Flush()
}

func resolveChanges(params *classifyParams, cfg *config.Config, args []string) (*changeset.ChangeSet, error) {
	if len(args) > 0 {
		entries := make([]changeset.Entry, len(args))
		for i, path := range args {
			entries[i] = changeset.Entry{Path: path, Kind: changeset.Modified}
		}
		return changeset.New(entries, false), nil
	}

	base := params.Base
	if base == "" {
		base = cfg.Git.BaseBranch
	}
	repo := git.NewRepository(cfg.Git.Dir)
	changes, err := changeset.Capture(context.Background(), repo, base, params.Head)
	if err != nil {
		return nil, fmt.Errorf("capturing changes %s...%s: %w", base, params.Head, err)
	}
	return changes, nil
}

// loadConfig resolves configuration the same way "gantry plan" does:
// the flag, then GANTRY_CONFIG, then built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("GANTRY_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}
