// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package classify maps a change set to named categories using
// path-glob rules. Categories drive the test-run planner: a change
// touching only doc/** lands in "docs" and schedules documentation
// jobs, while a change under salt/** implicates the full test matrix.
//
// # Rule sets
//
// A rule set is an ordered list of category definitions. Each category
// owns glob patterns (doublestar semantics: "**" spans path segments,
// "*" matches within one segment) and may include other categories'
// pattern lists by reference. Inclusion is set union over the
// referenced categories, resolved once at construction into a
// flattened pattern list — composition, not inheritance, and never
// runtime global state. Reference cycles and malformed globs are
// rejected by [NewRuleSet].
//
// Two special category forms exist:
//
//   - always_match: matches every change set, including the empty one.
//     Used by manual and scheduled triggers that carry no diff.
//   - match_deleted: matches when the change set contains delete-kind
//     entries. Deletions are tracked separately and never re-tested
//     against modify-rules.
//
// # Classification
//
// [RuleSet.Classify] is pure and deterministic: every non-deleted path
// is tested against every category, and a path may match zero, one, or
// many categories. The matched-category set is independent of input
// ordering. A truncated change set cannot be classified — Classify
// returns a [TruncatedError] and the planner falls back to a full run
// rather than risk false negatives.
//
// The default Salt rule set ships embedded as rules.jsonc (JSONC:
// comments and trailing commas allowed) and is returned by [Default].
package classify
