// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package verdictcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gantry-build/gantry/lib/verdict"
)

func writeReports(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadReports(t *testing.T) {
	path := writeReports(t, `[
		{"name": "lint", "required": true, "conclusion": "success"},
		{"name": "pkg-tests", "required": true, "conclusion": "skipped", "gated": true}
	]`)

	reports, err := readReports(path)
	if err != nil {
		t.Fatalf("readReports: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("read %d reports, want 2", len(reports))
	}
	if reports[1].Conclusion != verdict.Skipped || !reports[1].Gated {
		t.Errorf("report[1] = %+v", reports[1])
	}
}

func TestReadReportsRejectsUnknownConclusion(t *testing.T) {
	path := writeReports(t, `[{"name": "lint", "conclusion": "exploded"}]`)
	if _, err := readReports(path); err == nil {
		t.Error("unknown conclusion accepted")
	}
}

func TestRunVerdictExitCode(t *testing.T) {
	path := writeReports(t, `[{"name": "test", "required": true, "conclusion": "failure"}]`)

	params := &verdictParams{Reports: path}
	err := runVerdict(params)
	if err == nil {
		t.Fatal("failed pipeline returned nil")
	}
	coder, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("error %T does not carry an exit code", err)
	}
	if coder.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", coder.ExitCode())
	}
}
