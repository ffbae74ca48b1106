// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package verdict

import (
	"errors"
	"testing"
)

func TestAggregate_AllSuccess(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "build", Required: true, Conclusion: Success},
		{Name: "test", Required: true, Conclusion: Success},
		{Name: "sign-pkgs", Required: false, Conclusion: Success},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !result.Success {
		t.Errorf("verdict = %s, want success", result)
	}
	if result.ExitCode() != 0 {
		t.Errorf("exit code = %d, want 0", result.ExitCode())
	}
}

func TestAggregate_RequiredFailure(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "build", Required: true, Conclusion: Success},
		{Name: "test", Required: true, Conclusion: Failure},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.Success {
		t.Error("required failure should fail the pipeline")
	}
	if len(result.Problems) != 1 || result.Problems[0].Name != "test" {
		t.Errorf("problems = %+v", result.Problems)
	}
	if result.ExitCode() == 0 {
		t.Error("failure verdict must exit nonzero")
	}
}

func TestAggregate_RequiredCancelled(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "test", Required: true, Conclusion: Cancelled},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.Success {
		t.Error("cancellation of a required job should fail the pipeline")
	}
}

func TestAggregate_GatedSkipAcceptable(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "build-docs", Required: true, Conclusion: Skipped, Gated: true},
		{Name: "test", Required: true, Conclusion: Success},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !result.Success {
		t.Errorf("gated skip should be acceptable: %+v", result.Problems)
	}
}

func TestAggregate_UnexpectedSkipFails(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "test", Required: true, Conclusion: Skipped, Gated: false},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if result.Success {
		t.Error("an unexpected skip on a required job must fail the pipeline")
	}
}

func TestAggregate_NonRequiredNeverAffectsVerdict(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "test", Required: true, Conclusion: Success},
		{Name: "sign-pkgs", Required: false, Conclusion: Failure},
		{Name: "nightly-report", Required: false, Conclusion: Cancelled},
		{Name: "coverage", Required: false, Conclusion: Skipped},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !result.Success {
		t.Errorf("non-required conclusions leaked into the verdict: %+v", result.Problems)
	}
}

func TestAggregate_NeutralAcceptable(t *testing.T) {
	result, err := Aggregate([]Report{
		{Name: "notice", Required: true, Conclusion: Neutral},
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !result.Success {
		t.Error("neutral conclusion should not fail the pipeline")
	}
}

func TestAggregate_Incomplete(t *testing.T) {
	_, err := Aggregate([]Report{
		{Name: "build", Required: true, Conclusion: Success},
		{Name: "test", Required: true, Conclusion: Undetermined},
		{Name: "extra", Required: false, Conclusion: ""},
	})
	var incomplete *IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("got %v, want IncompleteError", err)
	}
	if len(incomplete.Jobs) != 2 {
		t.Errorf("pending jobs = %v, want both non-terminal jobs listed", incomplete.Jobs)
	}
}

func TestParseConclusion(t *testing.T) {
	if _, err := ParseConclusion("success"); err != nil {
		t.Errorf("ParseConclusion(success): %v", err)
	}
	if _, err := ParseConclusion("exploded"); err == nil {
		t.Error("unknown conclusion should fail to parse")
	}
}
