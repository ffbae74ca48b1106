// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package changeset models the set of file paths modified by a
// triggering event. A ChangeSet is captured once at trigger time —
// from git diff output, a flat listing, or an explicit entry list —
// and never mutated afterward. Every downstream planning component
// consumes it read-only.
//
// Change-detection providers can cap the number of reported paths.
// A truncated ChangeSet is still usable, but the classifier refuses
// to scope a run from it (lib/classify returns a TruncatedError and
// the planner falls back to a full run).
package changeset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gantry-build/gantry/lib/git"
)

// Kind is the type of change applied to a path.
type Kind string

const (
	// Added means the path was created by the change.
	Added Kind = "added"
	// Modified means the path existed before and its content changed.
	Modified Kind = "modified"
	// Deleted means the path was removed by the change. Deletions are
	// classified separately from add/modify changes — a deleted path
	// is never re-tested against modify-rules.
	Deleted Kind = "deleted"
)

// Entry is a single changed path with its change kind.
type Entry struct {
	Path string
	Kind Kind
}

// ChangeSet is the ordered, immutable set of paths modified by the
// triggering event.
type ChangeSet struct {
	entries   []Entry
	truncated bool
}

// New builds a ChangeSet from entries. The slice is copied so later
// mutation of the caller's slice cannot leak into the ChangeSet.
// truncated records whether the change-detection provider capped the
// listing.
func New(entries []Entry, truncated bool) *ChangeSet {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	return &ChangeSet{entries: copied, truncated: truncated}
}

// Entries returns a copy of all entries in capture order.
func (c *ChangeSet) Entries() []Entry {
	copied := make([]Entry, len(c.entries))
	copy(copied, c.entries)
	return copied
}

// Paths returns the paths of all non-deleted entries in capture order.
func (c *ChangeSet) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for _, entry := range c.entries {
		if entry.Kind != Deleted {
			paths = append(paths, entry.Path)
		}
	}
	return paths
}

// DeletedPaths returns the paths of all deleted entries in capture order.
func (c *ChangeSet) DeletedPaths() []string {
	var paths []string
	for _, entry := range c.entries {
		if entry.Kind == Deleted {
			paths = append(paths, entry.Path)
		}
	}
	return paths
}

// AllPaths returns every path regardless of kind, in capture order.
// This is the listing persisted for selective-test tooling.
func (c *ChangeSet) AllPaths() []string {
	paths := make([]string, len(c.entries))
	for i, entry := range c.entries {
		paths[i] = entry.Path
	}
	return paths
}

// Len returns the number of entries.
func (c *ChangeSet) Len() int {
	return len(c.entries)
}

// Empty reports whether the ChangeSet contains no entries.
func (c *ChangeSet) Empty() bool {
	return len(c.entries) == 0
}

// Truncated reports whether the change-detection provider capped the
// listing. A truncated ChangeSet cannot safely scope a selective run.
func (c *ChangeSet) Truncated() bool {
	return c.truncated
}

// ParseNameStatus parses "git diff --name-status" output into entries.
// Each line is "<status>\t<path>". Status letters map as: A → Added,
// D → Deleted, everything else (M, T, C, R with --no-renames disabled
// upstream) → Modified. Blank lines are ignored.
func ParseNameStatus(output string) ([]Entry, error) {
	var entries []Entry
	for lineNumber, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		status, path, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("name-status line %d: no tab separator in %q", lineNumber+1, line)
		}
		entries = append(entries, Entry{Path: path, Kind: kindForStatus(status)})
	}
	return entries, nil
}

func kindForStatus(status string) Kind {
	switch {
	case strings.HasPrefix(status, "A"):
		return Added
	case strings.HasPrefix(status, "D"):
		return Deleted
	default:
		return Modified
	}
}

// ParseListing reads a flat newline-separated path listing (the format
// persisted as the changed-files artifact and accepted on stdin). All
// entries are treated as Modified because flat listings carry no
// change-kind information.
func ParseListing(r io.Reader) (*ChangeSet, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			continue
		}
		entries = append(entries, Entry{Path: path, Kind: Modified})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading change listing: %w", err)
	}
	return New(entries, false), nil
}

// Capture diffs base...head in the given repository and returns the
// resulting ChangeSet. Capture never truncates — the truncated flag
// exists for listings imported from providers that do.
func Capture(ctx context.Context, repo *git.Repository, base, head string) (*ChangeSet, error) {
	output, err := repo.DiffNameStatus(ctx, base, head)
	if err != nil {
		return nil, fmt.Errorf("capturing change set: %w", err)
	}
	entries, err := ParseNameStatus(output)
	if err != nil {
		return nil, fmt.Errorf("capturing change set: %w", err)
	}
	return New(entries, false), nil
}
