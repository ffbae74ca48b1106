// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package saltver

import (
	"fmt"
	"slices"

	"github.com/gantry-build/gantry/lib/trigger"
)

// ChangelogTargetNextMajor is the changelog bucket for unreleased
// notes flagged as a major bump.
const ChangelogTargetNextMajor = "next-major-release"

// ChangelogState is the unreleased-changelog state consumed by
// [Resolve]. It is captured from the repository before planning and
// read-only afterward.
type ChangelogState struct {
	// MajorBump reports whether the unreleased notes are flagged for
	// the next major release.
	MajorBump bool
}

// ReleaseVersion is the canonical version for one run. Computed once
// per run; all downstream components consume it read-only.
type ReleaseVersion struct {
	// Version is the resolved version.
	Version Version

	// IsReleaseTag is true only when the triggering event is a tag
	// push whose tag matches the resolved version exactly.
	IsReleaseTag bool

	// ChangelogTarget is the unreleased-notes bucket new entries
	// append to: ChangelogTargetNextMajor for a flagged major bump,
	// else the resolved version's own bucket ("3007.1").
	ChangelogTarget string
}

// ConflictError reports that an explicit version override collides
// with an existing tag. This is fatal — there is no silent resolution.
type ConflictError struct {
	// Version is the rejected override.
	Version Version
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version %s conflicts with existing tag %s (delete the tag or pick a new version)",
		e.Version, e.Version.TagName())
}

// Resolve derives the canonical release version for a run.
//
// An explicit override wins when present. It is validated for
// uniqueness against existing tags: if the tag already exists the
// resolution fails with a [ConflictError], unless the run is itself a
// tag push re-running that exact tag.
//
// Without an override, a tag-push event resolves to the pushed tag's
// version, and any other event derives the next point release from
// the highest existing tag (or the next major when the changelog is
// flagged for one).
func Resolve(override string, event trigger.Event, tags []string, changelog ChangelogState) (ReleaseVersion, error) {
	resolved, err := resolveVersion(override, event, tags, changelog)
	if err != nil {
		return ReleaseVersion{}, err
	}

	isReleaseTag := false
	if event.Kind == trigger.Tag {
		tagVersion, err := Parse(event.TagName())
		if err == nil && tagVersion == resolved {
			isReleaseTag = true
		}
	}

	target := resolved.String()
	if changelog.MajorBump {
		target = ChangelogTargetNextMajor
	}

	return ReleaseVersion{
		Version:         resolved,
		IsReleaseTag:    isReleaseTag,
		ChangelogTarget: target,
	}, nil
}

func resolveVersion(override string, event trigger.Event, tags []string, changelog ChangelogState) (Version, error) {
	if override != "" {
		version, err := Parse(override)
		if err != nil {
			return Version{}, fmt.Errorf("explicit version: %w", err)
		}
		if slices.Contains(tags, version.TagName()) {
			// Re-running the tag's own pipeline is the one case where
			// the override may name an existing tag.
			if event.Kind == trigger.Tag && event.TagName() == version.TagName() {
				return version, nil
			}
			return Version{}, &ConflictError{Version: version}
		}
		return version, nil
	}

	if event.Kind == trigger.Tag {
		version, err := Parse(event.TagName())
		if err != nil {
			return Version{}, fmt.Errorf("tag push %q: %w", event.TagName(), err)
		}
		return version, nil
	}

	latest, found := latestTag(tags)
	if !found {
		return Version{}, fmt.Errorf("no release tags found and no explicit version given")
	}
	if changelog.MajorBump {
		return Version{Major: latest.Major + 1, Minor: 0}, nil
	}
	return Version{Major: latest.Major, Minor: latest.Minor + 1}, nil
}

// latestTag returns the highest parseable version among tags. Tags
// that do not parse as Salt versions (lightweight markers, nightly
// tags) are skipped rather than treated as errors.
func latestTag(tags []string) (Version, bool) {
	var latest Version
	found := false
	for _, tag := range tags {
		version, err := Parse(tag)
		if err != nil {
			continue
		}
		if !found || version.Compare(latest) > 0 {
			latest = version
			found = true
		}
	}
	return latest, found
}
