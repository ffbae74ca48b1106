// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package verdict reduces the terminal conclusions of all planned jobs
// to a single pipeline-level pass/fail verdict. It runs exactly once
// per pipeline, after every job has reached a terminal conclusion.
//
// The one subtlety is skipped jobs: "correctly not scheduled" (the
// job's gating predicate evaluated false) is acceptable on a required
// job, while "scheduled but never ran" is a failure. The aggregator is
// therefore given the gating outcome alongside the bare conclusion.
package verdict

import (
	"fmt"
	"strings"
)

// Conclusion is a job's terminal conclusion as reported by the
// executor.
type Conclusion string

const (
	// Success means the job completed successfully.
	Success Conclusion = "success"
	// Failure means the job ran and failed.
	Failure Conclusion = "failure"
	// Cancelled means the job was cancelled mid-flight (superseding
	// run, manual cancellation). Treated as failure on required jobs.
	Cancelled Conclusion = "cancelled"
	// Skipped means the executor did not run the job.
	Skipped Conclusion = "skipped"
	// Neutral means the job finished without an opinion (informational
	// jobs). Never affects the verdict.
	Neutral Conclusion = "neutral"
	// Undetermined means the job has not reached a terminal state.
	// Aggregating over an undetermined conclusion is an orchestration
	// bug.
	Undetermined Conclusion = "undetermined"
)

// Terminal reports whether the conclusion is a terminal state.
func (c Conclusion) Terminal() bool {
	switch c {
	case Success, Failure, Cancelled, Skipped, Neutral:
		return true
	default:
		return false
	}
}

// ParseConclusion validates a conclusion string from an executor
// report.
func ParseConclusion(s string) (Conclusion, error) {
	conclusion := Conclusion(s)
	switch conclusion {
	case Success, Failure, Cancelled, Skipped, Neutral, Undetermined:
		return conclusion, nil
	}
	return "", fmt.Errorf("unknown job conclusion %q", s)
}

// Report is one job's outcome as fed to the aggregator.
type Report struct {
	// Name is the job name from the plan.
	Name string `json:"name"`

	// Required marks jobs whose non-success conclusion forces overall
	// pipeline failure.
	Required bool `json:"required"`

	// Conclusion is the job's terminal conclusion.
	Conclusion Conclusion `json:"conclusion"`

	// Gated reports that the job's entry predicate evaluated false,
	// meaning it was correctly not scheduled. Only meaningful alongside
	// a Skipped conclusion.
	Gated bool `json:"gated,omitempty"`
}

// Problem is one required job that forced a failure verdict.
type Problem struct {
	// Name is the offending job.
	Name string `json:"name"`

	// Reason describes why the job counts against the verdict.
	Reason string `json:"reason"`
}

// Verdict is the pipeline-level outcome.
type Verdict struct {
	// Success is true when every required job is acceptable.
	Success bool `json:"success"`

	// Problems lists the required jobs that failed, were cancelled,
	// or were unexpectedly skipped. Empty on success.
	Problems []Problem `json:"problems,omitempty"`
}

// ExitCode returns the process exit code for the verdict.
func (v Verdict) ExitCode() int {
	if v.Success {
		return 0
	}
	return 1
}

// String formats the verdict for log output.
func (v Verdict) String() string {
	if v.Success {
		return "success"
	}
	names := make([]string, len(v.Problems))
	for i, problem := range v.Problems {
		names[i] = problem.Name
	}
	return "failure (" + strings.Join(names, ", ") + ")"
}

// IncompleteError reports that the aggregator was invoked while jobs
// were still non-terminal. The aggregator must only run after every
// planned job settles.
type IncompleteError struct {
	// Jobs are the names still undetermined.
	Jobs []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("pipeline aggregation invoked with non-terminal jobs: %s", strings.Join(e.Jobs, ", "))
}

// Aggregate reduces the job reports to the pipeline verdict:
//
//   - failure or cancelled on a required job → failure
//   - skipped on a required job → failure unless the job was gated
//     (its entry predicate evaluated false)
//   - non-required jobs never affect the verdict
//
// Any report with a non-terminal conclusion is an [IncompleteError],
// checked across all jobs (required or not) before any reduction so a
// half-settled pipeline can never produce a verdict.
func Aggregate(reports []Report) (Verdict, error) {
	var pending []string
	for _, report := range reports {
		if !report.Conclusion.Terminal() {
			pending = append(pending, report.Name)
		}
	}
	if len(pending) > 0 {
		return Verdict{}, &IncompleteError{Jobs: pending}
	}

	var problems []Problem
	for _, report := range reports {
		if !report.Required {
			continue
		}
		switch report.Conclusion {
		case Failure:
			problems = append(problems, Problem{Name: report.Name, Reason: "job failed"})
		case Cancelled:
			problems = append(problems, Problem{Name: report.Name, Reason: "job was cancelled before completing"})
		case Skipped:
			if !report.Gated {
				problems = append(problems, Problem{
					Name:   report.Name,
					Reason: "job was skipped although its gating predicate scheduled it",
				})
			}
		}
	}
	return Verdict{Success: len(problems) == 0, Problems: problems}, nil
}
