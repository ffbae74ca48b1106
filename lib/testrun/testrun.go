// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package testrun decides the scope of a pipeline run: full matrix,
// selective (only the job categories implicated by the change set),
// or skip. This is the decision core of the planner.
//
// The decision is a state machine over {undetermined, full, selective,
// skip}. Transition rules are evaluated in a fixed order and the first
// match wins:
//
//  1. Tag pushes, scheduled runs, and manual dispatches run full —
//     they carry no meaningful diff to scope from.
//  2. Workflow or golden-image changes run full: infrastructure
//     changes cannot be safely scoped. A truncated change set lands
//     here too (classification refuses it, and the planner recovers
//     by forcing full rather than risking false negatives).
//  3. A pull request labeled test:full runs full.
//  4. If no job category matched the change set, the run is skipped —
//     nothing relevant changed.
//  5. Otherwise the run is selective, enabling exactly the matched
//     leaf categories.
//
// Skip flags (skip-tests, skip-pkg-tests) AND against the computed
// category set: they can narrow a full or selective plan but never
// widen a skip, and never force one. See DESIGN.md for the policy
// decision on flag precedence over full-triggering conditions.
package testrun

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gantry-build/gantry/lib/changeset"
	"github.com/gantry-build/gantry/lib/classify"
	"github.com/gantry-build/gantry/lib/trigger"
)

// Type is the terminal scope decision for a run.
type Type string

const (
	// Full runs the entire job matrix regardless of change scope.
	Full Type = "full"
	// Selective runs only the job categories implicated by the change set.
	Selective Type = "selective"
	// Skip schedules no downstream jobs at all.
	Skip Type = "skip"
)

// FullTestsLabel is the pull-request label that forces a full run.
const FullTestsLabel = "test:full"

// Categories whose jobs the skip flags disable.
var (
	skipTestsCategories    = []string{"tests"}
	skipPkgTestsCategories = []string{"pkg_tests", "nsis_tests"}
)

// Plan is the test-run scope decision. Computed once per run and
// immutable afterward.
type Plan struct {
	// Type is the terminal decision.
	Type Type

	// Categories are the enabled job categories. For Full plans this
	// is every leaf category (minus skip-flag narrowing); for
	// Selective plans it is exactly the matched leaf categories; for
	// Skip plans it is empty.
	Categories []string

	// Reason records which transition rule decided the plan, for the
	// plan document and log output.
	Reason string

	// ChangedFiles is the literal changed-file listing persisted for
	// downstream selective-test tooling. Populated for Selective plans
	// only: full runs must assume everything relevant changed.
	ChangedFiles []string
}

// Enabled reports whether the named job category is enabled.
func (p Plan) Enabled(category string) bool {
	return slices.Contains(p.Categories, category)
}

// Inputs are the captured, immutable inputs to the scope decision.
type Inputs struct {
	// Event is the triggering event.
	Event trigger.Event

	// Changes is the captured change set. Ignored for trigger kinds
	// that force a full run.
	Changes *changeset.ChangeSet

	// Rules is the category rule set. Nil selects the embedded
	// default.
	Rules *classify.RuleSet

	// SkipTests disables test-job categories (narrowing only).
	SkipTests bool

	// SkipPkgTests disables package-test job categories (narrowing
	// only).
	SkipPkgTests bool
}

// Decide runs the transition rules and returns the terminal plan. It
// is a pure function of its inputs: no repository access, no clock.
func Decide(inputs Inputs) (Plan, error) {
	rules := inputs.Rules
	if rules == nil {
		rules = classify.Default()
	}

	// Rule 1: trigger kinds that force a full run. Evaluated before
	// classification so a truncated diff on a tag push is harmless.
	switch inputs.Event.Kind {
	case trigger.Tag, trigger.Schedule, trigger.WorkflowDispatch:
		return fullPlan(rules, inputs,
			fmt.Sprintf("%s triggers always run the full matrix", inputs.Event.Kind)), nil
	}

	changes := inputs.Changes
	if changes == nil {
		changes = changeset.New(nil, false)
	}

	result, err := rules.Classify(changes)
	if err != nil {
		var truncated *classify.TruncatedError
		if errors.As(err, &truncated) {
			// Rule 2, truncation arm: recover locally by forcing full.
			return fullPlan(rules, inputs,
				"change detection was truncated; falling back to a full run"), nil
		}
		return Plan{}, fmt.Errorf("deciding test-run scope: %w", err)
	}

	// Rule 2: infrastructure changes cannot be safely scoped.
	for _, category := range []string{"workflows", "golden_images"} {
		if result.Matched(category) {
			return fullPlan(rules, inputs,
				fmt.Sprintf("%s changes require a full run", category)), nil
		}
	}

	// Rule 3: explicit full-run label on the pull request.
	if inputs.Event.Kind == trigger.PullRequest && inputs.Event.HasLabel(FullTestsLabel) {
		return fullPlan(rules, inputs,
			fmt.Sprintf("pull request carries the %s label", FullTestsLabel)), nil
	}

	// Rules 4 and 5 both need the matched leaf categories.
	var enabled []string
	for _, name := range rules.LeafCategories() {
		if result.Matched(name) {
			enabled = append(enabled, name)
		}
	}

	// Rule 4: nothing relevant changed. The testrun composite decides
	// whether the test matrix is implicated, but a change matching
	// only non-test categories (docs, lint config) still carries a
	// selective run of its own jobs; skip is reserved for change sets
	// matching no job category at all.
	if len(enabled) == 0 {
		return Plan{
			Type:   Skip,
			Reason: "no changes matched any job category",
		}, nil
	}

	// Rule 5: selective, enabling exactly the matched leaf categories.
	return Plan{
		Type:         Selective,
		Categories:   applySkipFlags(enabled, inputs),
		Reason:       "scoped to categories matched by the change set",
		ChangedFiles: changes.AllPaths(),
	}, nil
}

// fullPlan builds a Full plan enabling every leaf category, narrowed
// by the skip flags. Full plans persist no changed-file listing.
func fullPlan(rules *classify.RuleSet, inputs Inputs, reason string) Plan {
	return Plan{
		Type:       Full,
		Categories: applySkipFlags(rules.LeafCategories(), inputs),
		Reason:     reason,
	}
}

// applySkipFlags removes the categories disabled by skip flags. Flags
// only ever narrow the set.
func applySkipFlags(categories []string, inputs Inputs) []string {
	var disabled []string
	if inputs.SkipTests {
		disabled = append(disabled, skipTestsCategories...)
	}
	if inputs.SkipPkgTests {
		disabled = append(disabled, skipPkgTestsCategories...)
	}
	if len(disabled) == 0 {
		return categories
	}
	var kept []string
	for _, category := range categories {
		if !slices.Contains(disabled, category) {
			kept = append(kept, category)
		}
	}
	return kept
}
