// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for the repository
// state the planner consumes: changed paths between two revisions and
// the release tag list. All commands target a specific repository
// directory via the -C flag, which is automatically injected by all
// Repository methods.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// DiffNameStatus returns the raw "git diff --name-status" output
// between base and head, using the three-dot form so the diff covers
// exactly the commits introduced by head relative to the merge base.
// Renames are split into delete+add pairs so that every entry has a
// single unambiguous change kind. Parsing into typed change entries
// lives in lib/changeset.
func (r *Repository) DiffNameStatus(ctx context.Context, base, head string) (string, error) {
	return r.Run(ctx, "diff", "--name-status", "--no-renames", base+"..."+head)
}

// Tags returns all tag names in the repository in version-sort order
// (git's v:refname ordering, so "v3006.9" sorts before "v3007.0").
func (r *Repository) Tags(ctx context.Context) ([]string, error) {
	output, err := r.Run(ctx, "tag", "--list", "--sort=v:refname")
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, nil
	}
	return strings.Split(trimmed, "\n"), nil
}

// TagExists reports whether the named tag exists in the repository.
func (r *Repository) TagExists(ctx context.Context, tag string) (bool, error) {
	output, err := r.Run(ctx, "tag", "--list", tag)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// Command returns an *exec.Cmd for a git command without running it.
// The caller gets full control over Stdin, Stdout, Stderr, and
// SysProcAttr before starting the process. The -C flag targeting this
// repository is automatically prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}
