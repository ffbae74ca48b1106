// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a git repository with an initial commit in a temp
// directory and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	run(t, dir, "init", "--initial-branch", "main")
	run(t, dir, "config", "user.name", "Test")
	run(t, dir, "config", "user.email", "test@test.local")

	readmePath := filepath.Join(dir, "README")
	if err := os.WriteFile(readmePath, []byte("test\n"), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	run(t, dir, "add", "README")
	run(t, dir, "commit", "-m", "initial")

	return dir
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if output, err := command.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
	}
}

func TestRepository_Run(t *testing.T) {
	dir := initRepo(t)
	repo := NewRepository(dir)

	output, err := repo.Run(context.Background(), "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(output) != "main" {
		t.Errorf("current branch = %q, want main", strings.TrimSpace(output))
	}
}

func TestRepository_RunError(t *testing.T) {
	repo := NewRepository(t.TempDir())

	_, err := repo.Run(context.Background(), "rev-parse", "HEAD")
	if err == nil {
		t.Fatal("expected error running git in a non-repository")
	}
	if !strings.Contains(err.Error(), "stderr:") {
		t.Errorf("error should include captured stderr: %v", err)
	}
}

func TestRepository_Tags(t *testing.T) {
	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	tags, err := repo.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if len(tags) != 0 {
		t.Fatalf("fresh repository has tags: %v", tags)
	}

	// Version sort must order 3006.9 before 3007.0 despite the string
	// ordering being the reverse.
	run(t, dir, "tag", "v3007.0")
	run(t, dir, "tag", "v3006.9")

	tags, err = repo.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	want := []string{"v3006.9", "v3007.0"}
	if len(tags) != len(want) {
		t.Fatalf("Tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("Tags[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestRepository_TagExists(t *testing.T) {
	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	run(t, dir, "tag", "v3007.1")

	exists, err := repo.TagExists(ctx, "v3007.1")
	if err != nil {
		t.Fatalf("TagExists: %v", err)
	}
	if !exists {
		t.Error("v3007.1 should exist")
	}

	exists, err = repo.TagExists(ctx, "v9999.0")
	if err != nil {
		t.Fatalf("TagExists: %v", err)
	}
	if exists {
		t.Error("v9999.0 should not exist")
	}
}

func TestRepository_DiffNameStatus(t *testing.T) {
	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	run(t, dir, "switch", "-c", "feature")
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "README")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	run(t, dir, "add", "-A")
	run(t, dir, "commit", "-m", "change")

	output, err := repo.DiffNameStatus(ctx, "main", "feature")
	if err != nil {
		t.Fatalf("DiffNameStatus: %v", err)
	}
	if !strings.Contains(output, "A\tnew.txt") {
		t.Errorf("diff missing added file:\n%s", output)
	}
	if !strings.Contains(output, "D\tREADME") {
		t.Errorf("diff missing deleted file:\n%s", output)
	}
}
