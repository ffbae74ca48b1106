// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesSubcommand(t *testing.T) {
	ran := false
	root := &Command{
		Name: "gantry",
		Subcommands: []*Command{
			{Name: "plan", Run: func(args []string) error {
				ran = true
				return nil
			}},
		},
	}

	if err := root.Execute([]string{"plan"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Error("subcommand did not run")
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "gantry",
		Subcommands: []*Command{
			{Name: "plan", Run: func([]string) error { return nil }},
			{Name: "verdict", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"verdct"})
	if err == nil {
		t.Fatal("unknown command accepted")
	}
	if !strings.Contains(err.Error(), `did you mean "verdict"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestExecutePassesRemainingArgs(t *testing.T) {
	var got []string
	var verbose bool
	command := &Command{
		Name: "classify",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("classify", pflag.ContinueOnError)
			flagSet.BoolVar(&verbose, "verbose", false, "")
			return flagSet
		},
		Run: func(args []string) error {
			got = args
			return nil
		},
	}

	if err := command.Execute([]string{"--verbose", "salt/x.py", "doc/y.rst"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !verbose {
		t.Error("--verbose not parsed")
	}
	if len(got) != 2 || got[0] != "salt/x.py" {
		t.Errorf("positional args = %v", got)
	}
}

func TestExecuteSubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "gantry",
		Subcommands: []*Command{{Name: "plan"}},
	}
	if err := root.Execute(nil); err == nil {
		t.Error("expected subcommand-required error")
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("config", "", "")
	flagSet.Bool("json", false, "")

	if got := suggestFlag([]string{"--confgi"}, flagSet); got != "--config" {
		t.Errorf("suggestFlag = %q, want --config", got)
	}
	if got := suggestFlag([]string{"--completely-unrelated-flag"}, flagSet); got != "" {
		t.Errorf("suggestFlag = %q, want no suggestion", got)
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"plan", "plan", 0},
		{"plan", "pln", 1},
		{"verdict", "verdct", 1},
		{"classify", "plan", 8},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
