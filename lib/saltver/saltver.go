// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package saltver parses and resolves Salt release versions. Salt uses
// a date-based scheme: a four-digit major ("3007"), a dot-separated
// point release ("3007.1"), and an optional release-candidate suffix
// ("3008.0rc1"). This is not semver — there is no patch triple and no
// pre-release dash — so parsing is a dedicated regular expression
// rather than a semver library.
package saltver

import (
	"fmt"
	"regexp"
	"strconv"
)

// versionPattern matches Salt version strings with an optional leading
// "v" (tag form). Anchored to the full string.
var versionPattern = regexp.MustCompile(`^v?(\d{4})\.(\d+)(?:rc(\d+))?$`)

// Version is a parsed Salt version.
type Version struct {
	// Major is the four-digit year-based major version.
	Major int

	// Minor is the point-release number.
	Minor int

	// RC is the release-candidate number, 0 for final releases.
	RC int
}

// Parse parses a Salt version string, accepting an optional leading
// "v" so that tag names parse directly.
func Parse(s string) (Version, error) {
	groups := versionPattern.FindStringSubmatch(s)
	if groups == nil {
		return Version{}, fmt.Errorf("invalid Salt version %q (want MAJOR.MINOR with optional rcN, e.g. 3007.1)", s)
	}
	major, _ := strconv.Atoi(groups[1])
	minor, _ := strconv.Atoi(groups[2])
	rc := 0
	if groups[3] != "" {
		rc, _ = strconv.Atoi(groups[3])
	}
	return Version{Major: major, Minor: minor, RC: rc}, nil
}

// String returns the canonical form without the "v" prefix.
func (v Version) String() string {
	if v.RC > 0 {
		return fmt.Sprintf("%d.%drc%d", v.Major, v.Minor, v.RC)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// TagName returns the tag form with the "v" prefix.
func (v Version) TagName() string {
	return "v" + v.String()
}

// Compare returns -1, 0, or 1 comparing v to other. A release
// candidate sorts before the final release it precedes.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	// RC 0 means final, which sorts after any candidate.
	vRC, otherRC := rcRank(v.RC), rcRank(other.RC)
	return sign(vRC - otherRC)
}

func rcRank(rc int) int {
	if rc == 0 {
		return 1 << 30
	}
	return rc
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
