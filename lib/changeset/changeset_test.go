// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package changeset

import (
	"strings"
	"testing"
)

func TestParseNameStatus(t *testing.T) {
	output := "M\tsalt/modules/file.py\nA\ttests/unit/test_file.py\nD\tdoc/old.rst\n"

	entries, err := ParseNameStatus(output)
	if err != nil {
		t.Fatalf("ParseNameStatus: %v", err)
	}

	want := []Entry{
		{Path: "salt/modules/file.py", Kind: Modified},
		{Path: "tests/unit/test_file.py", Kind: Added},
		{Path: "doc/old.rst", Kind: Deleted},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestParseNameStatus_TypeChange(t *testing.T) {
	// T (type change) and other exotic statuses fold into Modified.
	entries, err := ParseNameStatus("T\tscripts/hook\n")
	if err != nil {
		t.Fatalf("ParseNameStatus: %v", err)
	}
	if entries[0].Kind != Modified {
		t.Errorf("type change kind = %s, want modified", entries[0].Kind)
	}
}

func TestParseNameStatus_Malformed(t *testing.T) {
	if _, err := ParseNameStatus("no-tab-here\n"); err == nil {
		t.Fatal("expected error for line without tab separator")
	}
}

func TestChangeSet_PathsExcludeDeleted(t *testing.T) {
	cs := New([]Entry{
		{Path: "salt/state.py", Kind: Modified},
		{Path: "salt/gone.py", Kind: Deleted},
		{Path: "tests/new.py", Kind: Added},
	}, false)

	paths := cs.Paths()
	if len(paths) != 2 {
		t.Fatalf("Paths = %v, want 2 non-deleted entries", paths)
	}
	for _, path := range paths {
		if path == "salt/gone.py" {
			t.Error("deleted path leaked into Paths()")
		}
	}

	deleted := cs.DeletedPaths()
	if len(deleted) != 1 || deleted[0] != "salt/gone.py" {
		t.Errorf("DeletedPaths = %v, want [salt/gone.py]", deleted)
	}

	all := cs.AllPaths()
	if len(all) != 3 {
		t.Errorf("AllPaths = %v, want all 3 entries", all)
	}
}

func TestChangeSet_Immutable(t *testing.T) {
	source := []Entry{{Path: "a", Kind: Modified}}
	cs := New(source, false)
	source[0].Path = "mutated"

	if cs.Entries()[0].Path != "a" {
		t.Error("mutating the source slice changed the ChangeSet")
	}

	// Mutating the returned copy must not change the ChangeSet either.
	entries := cs.Entries()
	entries[0].Path = "mutated"
	if cs.Entries()[0].Path != "a" {
		t.Error("mutating a returned copy changed the ChangeSet")
	}
}

func TestParseListing(t *testing.T) {
	listing := "salt/modules/file.py\n\n  tests/unit/test_x.py  \n"

	cs, err := ParseListing(strings.NewReader(listing))
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if cs.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (blank lines skipped)", cs.Len())
	}
	if cs.Entries()[1].Path != "tests/unit/test_x.py" {
		t.Errorf("paths not trimmed: %q", cs.Entries()[1].Path)
	}
	if cs.Truncated() {
		t.Error("listings parse as non-truncated")
	}
}
