// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"errors"
	"slices"
	"testing"

	"github.com/gantry-build/gantry/lib/changeset"
)

func modified(paths ...string) *changeset.ChangeSet {
	entries := make([]changeset.Entry, len(paths))
	for i, path := range paths {
		entries[i] = changeset.Entry{Path: path, Kind: changeset.Modified}
	}
	return changeset.New(entries, false)
}

func TestClassify_DocsOnly(t *testing.T) {
	result, err := Default().Classify(modified("doc/ref/x.rst"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if !result.Matched("docs") {
		t.Error("doc/ref/x.rst should match docs")
	}
	if result.Matched("salt") {
		t.Error("doc/ref/x.rst should not match salt")
	}
	if result.Matched("pkg_tests") {
		t.Error("doc/ref/x.rst should not match pkg_tests")
	}
	// docs is deliberately not a member of the testrun composite.
	if result.Matched("testrun") {
		t.Error("docs-only change should not trigger testrun")
	}
}

func TestClassify_TestrunComposite(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"salt/modules/file.py", true},
		{"tests/unit/modules/test_file.py", true},
		{"pkg/debian/rules", true},
		{"requirements/static/pkg/py3.10/linux.txt", true},
		{"requirements/static/ci/py3.10/linux.txt", true},
		{"doc/topics/index.rst", false},
		{".github/workflows/ci.yml", false},
	}
	for _, tc := range cases {
		result, err := Default().Classify(modified(tc.path))
		if err != nil {
			t.Fatalf("Classify(%s): %v", tc.path, err)
		}
		if got := result.Matched("testrun"); got != tc.want {
			t.Errorf("testrun(%s) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestClassify_OrderIndependence(t *testing.T) {
	forward := []string{
		"salt/state.py",
		"doc/ref/x.rst",
		"tests/unit/test_state.py",
		".github/workflows/ci.yml",
	}
	backward := slices.Clone(forward)
	slices.Reverse(backward)

	resultForward, err := Default().Classify(modified(forward...))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	resultBackward, err := Default().Classify(modified(backward...))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	for _, name := range Default().Names() {
		if resultForward.Matched(name) != resultBackward.Matched(name) {
			t.Errorf("category %q: matched differs with input ordering", name)
		}
	}
}

func TestClassify_PathMayMatchManyCategories(t *testing.T) {
	// tests/pytests/pkg/** is claimed by both tests and pkg_tests.
	result, err := Default().Classify(modified("tests/pytests/pkg/test_install.py"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.Matched("tests") || !result.Matched("pkg_tests") {
		t.Errorf("pkg test path should match tests and pkg_tests, got %v",
			result.MatchedCategories())
	}
}

func TestClassify_EmptyChangeSet(t *testing.T) {
	result, err := Default().Classify(modified())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for _, name := range Default().Names() {
		if name == "changed" {
			if !result.Matched("changed") {
				t.Error("always-match category should match the empty change set")
			}
			continue
		}
		if result.Matched(name) {
			t.Errorf("empty change set should not match %q", name)
		}
	}
}

func TestClassify_DeletedTrackedSeparately(t *testing.T) {
	cs := changeset.New([]changeset.Entry{
		{Path: "salt/removed.py", Kind: changeset.Deleted},
	}, false)

	result, err := Default().Classify(cs)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.Matched("deleted") {
		t.Error("delete-kind entry should match the deleted category")
	}
	// The deletion must not be re-tested against modify-rules even
	// though its path falls under salt/**.
	if result.Matched("salt") {
		t.Error("deleted path must not match modify-rule categories")
	}
	if got := result.Paths("deleted"); len(got) != 1 || got[0] != "salt/removed.py" {
		t.Errorf("deleted paths = %v", got)
	}
}

func TestClassify_Truncated(t *testing.T) {
	cs := changeset.New([]changeset.Entry{
		{Path: "salt/state.py", Kind: changeset.Modified},
	}, true)

	_, err := Default().Classify(cs)
	var truncated *TruncatedError
	if !errors.As(err, &truncated) {
		t.Fatalf("Classify on truncated set: got %v, want TruncatedError", err)
	}
	if truncated.Entries != 1 {
		t.Errorf("Entries = %d, want 1", truncated.Entries)
	}
}

func TestNewRuleSet_RejectsCycle(t *testing.T) {
	_, err := NewRuleSet([]CategoryDef{
		{Name: "a", Include: []string{"b"}},
		{Name: "b", Include: []string{"a"}},
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestNewRuleSet_RejectsUnknownInclude(t *testing.T) {
	_, err := NewRuleSet([]CategoryDef{
		{Name: "a", Include: []string{"ghost"}},
	})
	if err == nil {
		t.Fatal("expected unknown-include error")
	}
}

func TestNewRuleSet_RejectsMalformedGlob(t *testing.T) {
	_, err := NewRuleSet([]CategoryDef{
		{Name: "a", Patterns: []string{"salt/[broken"}},
	})
	if err == nil {
		t.Fatal("expected malformed-glob error")
	}
}

func TestNewRuleSet_RejectsDuplicateName(t *testing.T) {
	_, err := NewRuleSet([]CategoryDef{
		{Name: "a", Patterns: []string{"x/**"}},
		{Name: "a", Patterns: []string{"y/**"}},
	})
	if err == nil {
		t.Fatal("expected duplicate-name error")
	}
}

func TestParseRules_JSONC(t *testing.T) {
	defs, err := ParseRules([]byte(`{
		// comment survives stripping
		"categories": [
			{"name": "docs", "patterns": ["doc/**",],},
		],
	}`))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "docs" {
		t.Errorf("defs = %+v", defs)
	}
}
