// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the gantry command tree.
package commands

import (
	"fmt"

	"github.com/gantry-build/gantry/cmd/gantry/cli"
	"github.com/gantry-build/gantry/cmd/gantry/classifycmd"
	"github.com/gantry-build/gantry/cmd/gantry/plancmd"
	"github.com/gantry-build/gantry/cmd/gantry/verdictcmd"
	"github.com/gantry-build/gantry/lib/version"
)

// Root returns the root "gantry" command with all subcommands.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "gantry",
		Summary: "Release pipeline planning and status aggregation",
		Description: `Gantry plans release pipeline runs and judges their outcome.

"gantry plan" turns one trigger event into the plan document the
pipeline executes from: release version, cache seed, test-run scope,
build matrix, and per-job gating. "gantry verdict" reduces the
finished jobs' conclusions to a single exit code. "gantry classify"
inspects the change classification on its own.`,
		Subcommands: []*cli.Command{
			plancmd.Command(),
			classifycmd.Command(),
			verdictcmd.Command(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the gantry version",
		Run: func(args []string) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
