// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Gantry packages.
//
// [WriteTree] materializes a file tree from a map in a temp directory,
// which is how cache-seed and artifact tests construct repository
// fixtures without checking fixtures into the tree.
//
// Helpers call t.Fatalf on failure rather than returning errors, since
// test setup failures are not recoverable.
//
// This package has no Gantry-internal dependencies.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates the given relative-path → content files under a
// fresh temp directory and returns the directory. Parent directories
// are created as needed. The directory is removed when the test
// completes (via t.TempDir semantics).
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
	return root
}
