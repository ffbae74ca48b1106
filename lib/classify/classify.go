// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gantry-build/gantry/lib/changeset"
)

// RuleSet is a validated, fully resolved set of category rules. Build
// one with [NewRuleSet] or [LoadRules]; the zero value is not usable.
type RuleSet struct {
	categories []resolvedCategory
	byName     map[string]int
}

// resolvedCategory is a category with its include references flattened
// into a single pattern list.
type resolvedCategory struct {
	def      CategoryDef
	patterns []string
}

// NewRuleSet validates the definitions and resolves include references
// into flattened pattern lists. It rejects duplicate names, references
// to undeclared categories, reference cycles, and malformed glob
// patterns. Declaration order is preserved.
func NewRuleSet(defs []CategoryDef) (*RuleSet, error) {
	byName := make(map[string]int, len(defs))
	for index, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("categories[%d]: name is required", index)
		}
		if firstIndex, exists := byName[def.Name]; exists {
			return nil, fmt.Errorf("categories[%d] %q: duplicate name (first declared at categories[%d])",
				index, def.Name, firstIndex)
		}
		byName[def.Name] = index

		if def.AlwaysMatch && (len(def.Patterns) > 0 || len(def.Include) > 0) {
			return nil, fmt.Errorf("category %q: always_match excludes patterns and includes", def.Name)
		}
		if def.MatchDeleted && (len(def.Patterns) > 0 || len(def.Include) > 0) {
			return nil, fmt.Errorf("category %q: match_deleted excludes patterns and includes", def.Name)
		}
		for _, pattern := range def.Patterns {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("category %q: malformed glob pattern %q", def.Name, pattern)
			}
		}
	}

	ruleSet := &RuleSet{byName: byName}

	// Resolve each category's include graph depth-first. The graph
	// must be acyclic; the path stack makes cycle reports readable.
	resolved := make(map[string][]string, len(defs))
	for _, def := range defs {
		patterns, err := flattenPatterns(def.Name, defs, byName, resolved, nil)
		if err != nil {
			return nil, err
		}
		ruleSet.categories = append(ruleSet.categories, resolvedCategory{
			def:      def,
			patterns: patterns,
		})
	}
	return ruleSet, nil
}

// flattenPatterns returns the category's own patterns plus those of
// every transitively included category, deduplicated, in declaration
// order. stack holds the active DFS path for cycle detection.
func flattenPatterns(name string, defs []CategoryDef, byName map[string]int, resolved map[string][]string, stack []string) ([]string, error) {
	if patterns, done := resolved[name]; done {
		return patterns, nil
	}
	if slices.Contains(stack, name) {
		return nil, fmt.Errorf("category %q: include cycle: %v", name, append(stack, name))
	}
	index, exists := byName[name]
	if !exists {
		return nil, fmt.Errorf("category %q: included category is not declared", name)
	}
	def := defs[index]

	patterns := slices.Clone(def.Patterns)
	for _, included := range def.Include {
		includedPatterns, err := flattenPatterns(included, defs, byName, resolved, append(stack, name))
		if err != nil {
			return nil, err
		}
		for _, pattern := range includedPatterns {
			if !slices.Contains(patterns, pattern) {
				patterns = append(patterns, pattern)
			}
		}
	}
	resolved[name] = patterns
	return patterns, nil
}

// Names returns all category names in declaration order.
func (rs *RuleSet) Names() []string {
	names := make([]string, len(rs.categories))
	for i, category := range rs.categories {
		names[i] = category.def.Name
	}
	return names
}

// Has reports whether the rule set declares the named category.
func (rs *RuleSet) Has(name string) bool {
	_, exists := rs.byName[name]
	return exists
}

// Def returns the declaration for the named category.
func (rs *RuleSet) Def(name string) (CategoryDef, bool) {
	index, exists := rs.byName[name]
	if !exists {
		return CategoryDef{}, false
	}
	return rs.categories[index].def, true
}

// LeafCategories returns the names of all job-scheduling categories in
// declaration order: categories that own patterns, excluding pure
// composites (include-only), always-match markers, and the deletion
// tracker. These are the categories a selective plan can enable.
func (rs *RuleSet) LeafCategories() []string {
	var names []string
	for _, category := range rs.categories {
		def := category.def
		if def.AlwaysMatch || def.MatchDeleted || len(def.Patterns) == 0 {
			continue
		}
		names = append(names, def.Name)
	}
	return names
}

// CategoryResult is the classification outcome for one category.
type CategoryResult struct {
	// Matched reports whether any path (or, for match_deleted
	// categories, any deletion) matched the category.
	Matched bool

	// Paths are the matching paths in change-set order.
	Paths []string
}

// Result maps category names to their classification outcome. Every
// declared category has an entry.
type Result struct {
	order      []string
	categories map[string]CategoryResult
}

// Matched reports whether the named category matched. Unknown
// categories report false.
func (r *Result) Matched(name string) bool {
	return r.categories[name].Matched
}

// Paths returns the matching paths for the named category.
func (r *Result) Paths(name string) []string {
	return slices.Clone(r.categories[name].Paths)
}

// MatchedCategories returns the names of all matched categories in
// rule-set declaration order.
func (r *Result) MatchedCategories() []string {
	var matched []string
	for _, name := range r.order {
		if r.categories[name].Matched {
			matched = append(matched, name)
		}
	}
	return matched
}

// TruncatedError reports that the change set was capped by the
// change-detection provider and cannot safely scope a selective run.
// The planner recovers by forcing a full run.
type TruncatedError struct {
	// Entries is how many entries survived truncation.
	Entries int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("change set was truncated by the provider after %d entries; classification would risk false negatives", e.Entries)
}

// Classify tests every path in the change set against every category
// and returns the per-category outcome. It is pure and deterministic:
// the matched-category set does not depend on change-set ordering.
//
// Deleted entries are matched only by match_deleted categories, never
// by path patterns. A truncated change set returns a [TruncatedError].
func (rs *RuleSet) Classify(cs *changeset.ChangeSet) (*Result, error) {
	if cs.Truncated() {
		return nil, &TruncatedError{Entries: cs.Len()}
	}

	result := &Result{
		order:      rs.Names(),
		categories: make(map[string]CategoryResult, len(rs.categories)),
	}

	paths := cs.Paths()
	deleted := cs.DeletedPaths()

	for _, category := range rs.categories {
		switch {
		case category.def.AlwaysMatch:
			result.categories[category.def.Name] = CategoryResult{
				Matched: true,
				Paths:   cs.AllPaths(),
			}
		case category.def.MatchDeleted:
			result.categories[category.def.Name] = CategoryResult{
				Matched: len(deleted) > 0,
				Paths:   slices.Clone(deleted),
			}
		default:
			var matching []string
			for _, path := range paths {
				if matchesAny(category.patterns, path) {
					matching = append(matching, path)
				}
			}
			result.categories[category.def.Name] = CategoryResult{
				Matched: len(matching) > 0,
				Paths:   matching,
			}
		}
	}
	return result, nil
}

// matchesAny reports whether path matches any of the glob patterns.
// Patterns were validated at rule-set construction, so a match error
// here cannot occur; doublestar.MatchUnvalidated skips the redundant
// re-validation.
func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, path) {
			return true
		}
	}
	return false
}
