package typeinfer

import (
	"testing"

	"zawk/internal/ir"
	"zawk/internal/lexer"
	"zawk/internal/parser"
)

func compile(t *testing.T, src string) (*ir.Program, map[string]bool) {
	t.Helper()
	toks := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(toks, "<test>")
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	irProg, arrayUses := ir.Build(prog)
	return irProg, arrayUses
}

func TestInferIntFloatWiden(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { x = 1; y = 2.5; z = x + y }`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Globals["x"] != Int {
		t.Errorf("expected x Int, got %v", res.Globals["x"])
	}
	if res.Globals["y"] != Float {
		t.Errorf("expected y Float, got %v", res.Globals["y"])
	}
	if res.Globals["z"] != Float {
		t.Errorf("expected z Float (widened), got %v", res.Globals["z"])
	}
}

func TestInferStringSink(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { x = 1; x = "hello" }`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Globals["x"] != Str {
		t.Errorf("expected x Str after join with a string write, got %v", res.Globals["x"])
	}
}

func TestInferArrayKeyAndValue(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { a[1] = 2.5; a["x"] = 3 }`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ArrayVal["a"] != Float {
		t.Errorf("expected array a value Float, got %v", res.ArrayVal["a"])
	}
	if res.ArrayKey["a"] != Str {
		t.Errorf("expected array a key Str (mixed Int/Str subscripts join to Str), got %v", res.ArrayKey["a"])
	}
}

func TestInferScalarArrayConflictIsFatal(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { a = 1; a[1] = 2 }`)
	if _, err := Infer(irProg, arrays); err == nil {
		t.Fatalf("expected a TypeError for scalar/array conflict on %q", "a")
	}
}

func TestInferUserFunctionMonomorphization(t *testing.T) {
	irProg, arrays := compile(t, `
function double(v) { return v + v }
BEGIN { x = double(1); y = double(1.5) }
`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	specs := res.Specs["double"]
	if len(specs) != 2 {
		t.Fatalf("expected 2 monomorphized specializations of double, got %d", len(specs))
	}
	if res.Globals["x"] != Int {
		t.Errorf("expected x Int from double(1), got %v", res.Globals["x"])
	}
	if res.Globals["y"] != Float {
		t.Errorf("expected y Float from double(1.5), got %v", res.Globals["y"])
	}
}

func TestInferSplitDestinationBecomesStrMap(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { n = split("a b c", parts) }`)
	if !arrays["parts"] {
		t.Fatalf("expected split's destination argument to mark %q as array-used", "parts")
	}
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ArrayKey["parts"] == Unknown {
		t.Errorf("expected parts to have a resolved array key type")
	}
}

func TestInferSplitDestinationBecomesIntMapWhenIndexedNumerically(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { split("a b c", parts); x = parts[1] }`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ArrayKey["parts"] != Int {
		t.Errorf("expected parts ArrayKey Int from the later numeric index, got %v", res.ArrayKey["parts"])
	}
}

func TestInferComparisonIsBoolInt(t *testing.T) {
	irProg, arrays := compile(t, `BEGIN { ok = (1 < 2) }`)
	res, err := Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Globals["ok"] != Int {
		t.Errorf("expected ok Int, got %v", res.Globals["ok"])
	}
}
