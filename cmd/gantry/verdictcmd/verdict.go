// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package verdictcmd implements "gantry verdict", the pipeline's final
// gate. It reads the terminal conclusion of every planned job and
// reduces them to a single pass/fail exit code.
package verdictcmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/gantry-build/gantry/cmd/gantry/cli"
	"github.com/gantry-build/gantry/lib/verdict"
)

type verdictParams struct {
	cli.JSONOutput
	Reports string `flag:"reports" default:"-" desc:"job reports JSON file, - for stdin"`
}

// Command returns the "verdict" command.
func Command() *cli.Command {
	var params verdictParams

	return &cli.Command{
		Name:    "verdict",
		Summary: "Reduce job conclusions to the pipeline verdict",
		Usage:   "gantry verdict [--reports file] [flags]",
		Description: `Reduce the terminal conclusions of all planned jobs to one
pipeline-level verdict.

The input is a JSON array of job reports: name, required, conclusion
(success, failure, cancelled, skipped, neutral), and whether the job
was gated off by the plan. A required job that failed, was cancelled,
or was skipped without being gated fails the pipeline. Jobs that have
not reached a terminal conclusion make the verdict an error, never a
guess.

Exits 0 on success and 1 on failure, printing the offending required
jobs.`,
		Examples: []cli.Example{
			{
				Description: "Aggregate reports collected by the workflow",
				Command:     "gantry verdict --reports reports.json",
			},
			{
				Description: "Pipe reports from the runner API",
				Command:     "fetch-job-reports | gantry verdict --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verdict", &params)
		},
		Run: func(args []string) error {
			return runVerdict(&params)
		},
	}
}

func runVerdict(params *verdictParams) error {
	reports, err := readReports(params.Reports)
	if err != nil {
		return err
	}

	result, err := verdict.Aggregate(reports)
	if err != nil {
		var incomplete *verdict.IncompleteError
		if errors.As(err, &incomplete) {
			return fmt.Errorf("cannot compute a verdict: %w", err)
		}
		return err
	}

	if done, err := params.EmitJSON(result); done {
		if err != nil {
			return err
		}
	} else {
		fmt.Println(result.String())
	}

	if code := result.ExitCode(); code != 0 {
		return &cli.ExitError{Code: code}
	}
	return nil
}

func readReports(path string) ([]verdict.Report, error) {
	var reader io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening reports: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var reports []verdict.Report
	if err := json.NewDecoder(reader).Decode(&reports); err != nil {
		return nil, fmt.Errorf("decoding job reports: %w", err)
	}
	for i, report := range reports {
		if _, err := verdict.ParseConclusion(string(report.Conclusion)); err != nil {
			return nil, fmt.Errorf("report %d (%s): %w", i, report.Name, err)
		}
	}
	return reports, nil
}
