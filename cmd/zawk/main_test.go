package main

import (
	"testing"

	"zawk/internal/output"
	"zawk/internal/parallel"
	"zawk/internal/record"
)

func TestParseArgsProgramText(t *testing.T) {
	cfg, err := parseArgs([]string{"{ print $1 }", "a.txt", "b.txt"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.progText != "{ print $1 }" {
		t.Errorf("progText = %q, want program literal", cfg.progText)
	}
	if len(cfg.files) != 2 || cfg.files[0] != "a.txt" || cfg.files[1] != "b.txt" {
		t.Errorf("files = %v, want [a.txt b.txt]", cfg.files)
	}
	if cfg.fieldSep != " " {
		t.Errorf("fieldSep = %q, want default single space", cfg.fieldSep)
	}
}

func TestParseArgsFlags(t *testing.T) {
	cfg, err := parseArgs([]string{
		"-F", ":", "-v", "x=1", "-v", "y=2",
		"--format", "csv", "--parallel", "4", "--reduce", "total:sum",
		"--dump-bytecode", "--dump-cfg",
		"{ print }", "in.csv",
	})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.fieldSep != ":" {
		t.Errorf("fieldSep = %q, want :", cfg.fieldSep)
	}
	if len(cfg.assigns) != 2 || cfg.assigns[0] != "x=1" || cfg.assigns[1] != "y=2" {
		t.Errorf("assigns = %v, want [x=1 y=2]", cfg.assigns)
	}
	if cfg.format != "csv" {
		t.Errorf("format = %q, want csv", cfg.format)
	}
	if cfg.parallel != 4 {
		t.Errorf("parallel = %d, want 4", cfg.parallel)
	}
	if len(cfg.reduceSpecs) != 1 || cfg.reduceSpecs[0] != "total:sum" {
		t.Errorf("reduceSpecs = %v, want [total:sum]", cfg.reduceSpecs)
	}
	if !cfg.dumpBytecode || !cfg.dumpCFG {
		t.Errorf("dumpBytecode=%v dumpCFG=%v, want both true", cfg.dumpBytecode, cfg.dumpCFG)
	}
	if cfg.progText != "{ print }" {
		t.Errorf("progText = %q, want program literal", cfg.progText)
	}
	if len(cfg.files) != 1 || cfg.files[0] != "in.csv" {
		t.Errorf("files = %v, want [in.csv]", cfg.files)
	}
}

func TestParseArgsFAttached(t *testing.T) {
	cfg, err := parseArgs([]string{"-F,", "{ print }"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.fieldSep != "," {
		t.Errorf("fieldSep = %q, want ,", cfg.fieldSep)
	}
}

func TestParseArgsDoubleDashStopsFlagParsing(t *testing.T) {
	cfg, err := parseArgs([]string{"{ print }", "--", "-F", "literal-dash-file"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if len(cfg.files) != 2 || cfg.files[0] != "-F" || cfg.files[1] != "literal-dash-file" {
		t.Errorf("files = %v, want [-F literal-dash-file] (no flag parsing after --)", cfg.files)
	}
}

func TestParseArgsMissingProgramErrors(t *testing.T) {
	if _, err := parseArgs(nil); err == nil {
		t.Error("parseArgs(nil) should error with no program text or -f file")
	}
}

func TestParseArgsMissingFlagArgErrors(t *testing.T) {
	cases := [][]string{
		{"-F"},
		{"-v"},
		{"-f"},
		{"--format"},
		{"--parallel"},
		{"--reduce"},
	}
	for _, args := range cases {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v) should error on missing argument", args)
		}
	}
}

func TestParseArgsParallelNotANumber(t *testing.T) {
	if _, err := parseArgs([]string{"--parallel", "four", "{ print }"}); err == nil {
		t.Error("parseArgs with non-numeric --parallel should error")
	}
}

func TestParseOutFormat(t *testing.T) {
	cases := map[string]output.Format{
		"csv": output.FormatCSV,
		"tsv": output.FormatTSV,
		"":    output.FormatLine,
		"xyz": output.FormatLine,
	}
	for in, want := range cases {
		if got := parseOutFormat(in); got != want {
			t.Errorf("parseOutFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRecFormat(t *testing.T) {
	cases := map[string]record.Format{
		"csv": record.FormatCSV,
		"tsv": record.FormatTSV,
		"":    record.FormatLine,
		"xyz": record.FormatLine,
	}
	for in, want := range cases {
		if got := parseRecFormat(in); got != want {
			t.Errorf("parseRecFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseReduceSpecs(t *testing.T) {
	specs, err := parseReduceSpecs([]string{"total:sum", "best:max"})
	if err != nil {
		t.Fatalf("parseReduceSpecs: %v", err)
	}
	want := []parallel.ReduceSpec{
		{Name: "total", Op: parallel.ReduceSum},
		{Name: "best", Op: parallel.ReduceMax},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("specs[%d] = %+v, want %+v", i, specs[i], want[i])
		}
	}
}

func TestParseReduceSpecsBadFormat(t *testing.T) {
	if _, err := parseReduceSpecs([]string{"noColon"}); err == nil {
		t.Error("parseReduceSpecs should error without a name:op colon")
	}
}

func TestParseReduceSpecsUnknownOp(t *testing.T) {
	if _, err := parseReduceSpecs([]string{"total:average"}); err == nil {
		t.Error("parseReduceSpecs should error on an unrecognized op")
	}
}

func TestApplyAssigns(t *testing.T) {
	if err := applyAssigns(nil, []string{"noEquals"}); err == nil {
		t.Error("applyAssigns should error on a -v argument without =")
	}
}

func TestSortInts(t *testing.T) {
	xs := []int{5, 3, 1, 4, 1, 5, 9, 2, 6}
	sortInts(xs)
	for i := 1; i < len(xs); i++ {
		if xs[i-1] > xs[i] {
			t.Fatalf("sortInts left %v unsorted at index %d", xs, i)
		}
	}
}
