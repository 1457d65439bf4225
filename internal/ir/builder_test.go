package ir

import (
	"testing"

	"zawk/internal/lexer"
	"zawk/internal/parser"
)

func build(t *testing.T, src string) (*Program, map[string]bool) {
	t.Helper()
	toks := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(toks, "<test>")
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	return Build(prog)
}

func countOp(instrs []Instr, op Op) int {
	n := 0
	for _, i := range instrs {
		if i.Op == op {
			n++
		}
	}
	return n
}

func allInstrs(f *Func) []Instr {
	var out []Instr
	for _, b := range f.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

func TestBuildSplitDestinationMarksArrayUse(t *testing.T) {
	prog, arrays := build(t, `BEGIN { n = split("a b c", parts) }`)
	if !arrays["parts"] {
		t.Fatalf("expected split's 2nd argument to be recorded as an array use")
	}
	instrs := allInstrs(prog.Begin[0])
	if countOp(instrs, OpArrayRef) != 1 {
		t.Errorf("expected one OpArrayRef for split's destination, got %d", countOp(instrs, OpArrayRef))
	}
	if countOp(instrs, OpLoadVar) != 0 {
		t.Errorf("split's array destination must not lower to a scalar OpLoadVar")
	}
}

func TestBuildOrdinaryCallArgumentsStillLoadVar(t *testing.T) {
	prog, _ := build(t, `function f(v) { return v } BEGIN { x = 1; y = f(x) }`)
	instrs := allInstrs(prog.Begin[0])
	if countOp(instrs, OpArrayRef) != 0 {
		t.Errorf("an ordinary scalar call argument must not produce OpArrayRef")
	}
	if countOp(instrs, OpLoadVar) == 0 {
		t.Errorf("expected f(x) to load x as an ordinary scalar")
	}
}

func TestBuildSplitNonVariableDestinationLowersAsOrdinaryExpression(t *testing.T) {
	// split's 2nd argument is always a bare name in valid AWK; callArgs
	// only special-cases *parser.VarExpr, so anything else (the parser
	// accepts it) simply falls through to an ordinary expression
	// lowering instead of panicking.
	prog, _ := build(t, `BEGIN { n = split("a b c", "x" "y") }`)
	instrs := allInstrs(prog.Begin[0])
	if countOp(instrs, OpArrayRef) != 0 {
		t.Errorf("a non-variable 2nd argument must not produce OpArrayRef")
	}
}
