// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger models the event that started a pipeline run: what
// kind of event it was, which ref it points at, and the labels and
// actor attached to it. The planner's scope decision and the version
// resolver both branch on this descriptor, so it lives in its own
// dependency-free package.
package trigger

import (
	"fmt"
	"strings"
)

// Kind is the type of triggering event.
type Kind string

const (
	// Push is a branch push.
	Push Kind = "push"
	// PullRequest is a pull request update.
	PullRequest Kind = "pull_request"
	// Schedule is a cron-scheduled run (nightly).
	Schedule Kind = "schedule"
	// Tag is a tag push.
	Tag Kind = "tag"
	// WorkflowDispatch is an explicit manual dispatch.
	WorkflowDispatch Kind = "workflow_dispatch"
)

// knownKinds is the set of accepted kind strings.
var knownKinds = map[Kind]bool{
	Push: true, PullRequest: true, Schedule: true, Tag: true, WorkflowDispatch: true,
}

// ParseKind validates a kind string from flags or an event payload.
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	if !knownKinds[kind] {
		return "", fmt.Errorf("unknown trigger kind %q (want push, pull_request, schedule, tag, or workflow_dispatch)", s)
	}
	return kind, nil
}

// Event describes the triggering event for one pipeline run. Captured
// once at trigger time; read-only afterward.
type Event struct {
	// Kind is the event type.
	Kind Kind

	// Ref is the git ref the event points at, in full form
	// ("refs/heads/master", "refs/tags/v3007.1") or shorthand.
	Ref string

	// Labels are the labels on the pull request, empty otherwise.
	Labels []string

	// Actor is the username that caused the event.
	Actor string
}

// HasLabel reports whether the event carries the named label.
func (e Event) HasLabel(name string) bool {
	for _, label := range e.Labels {
		if label == name {
			return true
		}
	}
	return false
}

// TagName returns the tag name for tag events, with any refs/tags/
// prefix stripped. Empty for non-tag events.
func (e Event) TagName() string {
	if e.Kind != Tag {
		return ""
	}
	return strings.TrimPrefix(e.Ref, "refs/tags/")
}

// Branch returns the branch name with any refs/heads/ prefix stripped.
func (e Event) Branch() string {
	return strings.TrimPrefix(e.Ref, "refs/heads/")
}
