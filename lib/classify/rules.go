// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/jsonc"
)

// CategoryDef is one category declaration in a rules file.
type CategoryDef struct {
	// Name is the category name referenced by the planner and by other
	// categories' Include lists.
	Name string `json:"name"`

	// Patterns are the category's own glob patterns. A path matches
	// the category if it matches any pattern.
	Patterns []string `json:"patterns,omitempty"`

	// Include lists other categories whose resolved pattern lists are
	// unioned into this category. Order is preserved for deterministic
	// flattening; duplicates collapse.
	Include []string `json:"include,omitempty"`

	// AlwaysMatch marks a category that matches every change set,
	// including the empty one (manual and scheduled triggers).
	AlwaysMatch bool `json:"always_match,omitempty"`

	// MatchDeleted marks the category that matches delete-kind entries
	// by kind rather than by path pattern.
	MatchDeleted bool `json:"match_deleted,omitempty"`
}

// rulesFile is the top-level shape of a JSONC rules file.
type rulesFile struct {
	Categories []CategoryDef `json:"categories"`
}

// ParseRules strips JSONC comments and trailing commas from data, then
// unmarshals the category definitions. This is the same JSONC handling
// used for authored pipeline definitions: the on-disk format allows //
// line comments, /* block comments */, and trailing commas.
func ParseRules(data []byte) ([]CategoryDef, error) {
	stripped := jsonc.ToJSON(data)

	var file rulesFile
	if err := json.Unmarshal(stripped, &file); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("parsing rules: no categories declared")
	}
	return file.Categories, nil
}

// LoadRules reads a JSONC rules file from disk and builds the rule set.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ruleSet, err := NewRuleSet(defs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ruleSet, nil
}

//go:embed rules.jsonc
var defaultRules []byte

// Default returns the embedded Salt rule set. The embedded file is
// validated once; a parse failure is a build defect, not runtime data,
// and panics.
var Default = sync.OnceValue(func() *RuleSet {
	defs, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("classify: embedded rules.jsonc: %v", err))
	}
	ruleSet, err := NewRuleSet(defs)
	if err != nil {
		panic(fmt.Sprintf("classify: embedded rules.jsonc: %v", err))
	}
	return ruleSet
})
