// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import "testing"

func TestParseKind(t *testing.T) {
	for _, name := range []string{"push", "pull_request", "schedule", "tag", "workflow_dispatch"} {
		kind, err := ParseKind(name)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", name, err)
		}
		if string(kind) != name {
			t.Errorf("ParseKind(%q) = %q", name, kind)
		}
	}

	if _, err := ParseKind("merge_group"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestTagName(t *testing.T) {
	event := Event{Kind: Tag, Ref: "refs/tags/v3007.1"}
	if got := event.TagName(); got != "v3007.1" {
		t.Errorf("TagName = %q, want v3007.1", got)
	}

	// Non-tag events have no tag name regardless of ref shape.
	event = Event{Kind: Push, Ref: "refs/tags/v3007.1"}
	if got := event.TagName(); got != "" {
		t.Errorf("TagName on push = %q, want empty", got)
	}
}

func TestBranch(t *testing.T) {
	event := Event{Kind: Push, Ref: "refs/heads/master"}
	if got := event.Branch(); got != "master" {
		t.Errorf("Branch = %q, want master", got)
	}
	event = Event{Kind: Push, Ref: "3007.x"}
	if got := event.Branch(); got != "3007.x" {
		t.Errorf("Branch shorthand = %q, want 3007.x", got)
	}
}

func TestHasLabel(t *testing.T) {
	event := Event{Kind: PullRequest, Labels: []string{"bug", "test:full"}}
	if !event.HasLabel("test:full") {
		t.Error("test:full label not found")
	}
	if event.HasLabel("docs") {
		t.Error("absent label reported present")
	}
}
