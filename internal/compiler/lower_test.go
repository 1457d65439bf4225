package compiler

import (
	"testing"

	"zawk/internal/bytecode"
	"zawk/internal/ir"
	"zawk/internal/lexer"
	"zawk/internal/parser"
	"zawk/internal/typeinfer"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	toks := lexer.NewScanner(src).ScanTokens()
	p := parser.NewParser(toks, "<test>")
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("parse errors: %v", p.Errors)
	}
	irProg, arrays := ir.Build(prog)
	typed, err := typeinfer.Infer(irProg, arrays)
	if err != nil {
		t.Fatalf("infer error: %v", err)
	}
	return Lower(irProg, typed)
}

func countOp(fn *bytecode.Func, op bytecode.Op) int {
	n := 0
	for _, i := range fn.Code {
		if i.Op == op {
			n++
		}
	}
	return n
}

func TestLowerArithmeticDivisionAlwaysFloat(t *testing.T) {
	prog := compile(t, `BEGIN { z = 3 / 2 }`)
	if len(prog.Begin) != 1 {
		t.Fatalf("expected one BEGIN func, got %d", len(prog.Begin))
	}
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpDivF) != 1 {
		t.Errorf("expected a single OpDivF for 3/2, got %d", countOp(fn, bytecode.OpDivF))
	}
	if countOp(fn, bytecode.OpDivI) != 0 {
		t.Errorf("division must never lower to OpDivI")
	}
}

func TestLowerShortCircuitAndUsesToBool(t *testing.T) {
	prog := compile(t, `BEGIN { ok = (1 && 0) }`)
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpToBool) != 2 {
		t.Errorf("expected two OpToBool conversions for &&'s operands, got %d", countOp(fn, bytecode.OpToBool))
	}
	if countOp(fn, bytecode.OpAndI) != 1 {
		t.Errorf("expected one OpAndI, got %d", countOp(fn, bytecode.OpAndI))
	}
}

func TestLowerArraySetUsesIntMapForNumericKey(t *testing.T) {
	prog := compile(t, `BEGIN { a[1] = "x" }`)
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpArrSetI) != 1 {
		t.Errorf("expected OpArrSetI for a numeric-only key array, got %d sets", countOp(fn, bytecode.OpArrSetI))
	}
	if countOp(fn, bytecode.OpArrSetS) != 0 {
		t.Errorf("numeric-only key array must not lower to OpArrSetS")
	}
}

func TestLowerMultiSubscriptJoinsOnSubsep(t *testing.T) {
	prog := compile(t, `BEGIN { a[1,2] = 3 }`)
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpConcat) < 1 {
		t.Errorf("expected a SUBSEP-joining OpConcat for the multi-subscript key")
	}
	if countOp(fn, bytecode.OpArrSetS) != 1 {
		t.Errorf("multi-subscript arrays must use the Str-keyed map, got %d", countOp(fn, bytecode.OpArrSetS))
	}
}

func TestLowerForInEmitsIterTriple(t *testing.T) {
	prog := compile(t, `BEGIN { a[1]=1; a[2]=2; for (k in a) { x = k } }`)
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpIterInitI) != 1 {
		t.Errorf("expected one OpIterInitI, got %d", countOp(fn, bytecode.OpIterInitI))
	}
	if countOp(fn, bytecode.OpIterNext) != 1 {
		t.Errorf("expected one OpIterNext, got %d", countOp(fn, bytecode.OpIterNext))
	}
	if countOp(fn, bytecode.OpIterEnd) != 1 {
		t.Errorf("expected one OpIterEnd, got %d", countOp(fn, bytecode.OpIterEnd))
	}
}

func TestLowerUserFunctionMonomorphizesToDistinctIDs(t *testing.T) {
	prog := compile(t, `
function double(v) { return v + v }
BEGIN { x = double(1); y = double(1.5) }
`)
	specs := prog.Begin // sanity: still one BEGIN func
	if len(specs) != 1 {
		t.Fatalf("expected one BEGIN func, got %d", len(specs))
	}
	var userFuncs int
	seen := map[int]bool{}
	for _, fn := range prog.Funcs {
		if fn == nil {
			t.Fatalf("found an unfilled function placeholder")
		}
		userFuncs++
		if seen[fn.ID] {
			t.Errorf("duplicate function id %d", fn.ID)
		}
		seen[fn.ID] = true
	}
	if userFuncs != 2 {
		t.Fatalf("expected 2 monomorphized specializations of double, got %d", userFuncs)
	}
	fn := prog.Begin[0]
	if countOp(fn, bytecode.OpCallUser) != 2 {
		t.Errorf("expected two OpCallUser sites, got %d", countOp(fn, bytecode.OpCallUser))
	}
}

func TestLowerFunctionParamsDoNotTouchGlobals(t *testing.T) {
	prog := compile(t, `
function double(v) { return v + v }
BEGIN { x = double(5) }
`)
	for _, fn := range prog.Funcs {
		for _, i := range fn.Code {
			if i.Op == bytecode.OpLoadGlobal || i.Op == bytecode.OpStoreGlobal {
				t.Errorf("function %s: param access must not touch globals, found %v", fn.Name, i.Op)
			}
		}
	}
}

func TestLowerGlobalArrayGetsItsOwnSlot(t *testing.T) {
	prog := compile(t, `BEGIN { a[1] = "x"; b["k"] = "y" }`)
	aOp, ok := prog.GlobalSlots["a"]
	if !ok {
		t.Fatalf("expected a global slot for array a")
	}
	bOp, ok := prog.GlobalSlots["b"]
	if !ok {
		t.Fatalf("expected a global slot for array b")
	}
	if aOp.Bank != bytecode.BankIntMap {
		t.Errorf("a: expected BankIntMap, got %v", aOp.Bank)
	}
	if bOp.Bank != bytecode.BankStrMap {
		t.Errorf("b: expected BankStrMap, got %v", bOp.Bank)
	}
	if aOp == bOp {
		t.Errorf("a and b must not share a slot: %v", aOp)
	}
}

func TestLowerSplitPassesDestinationArrayByReference(t *testing.T) {
	prog := compile(t, `BEGIN { n = split("a b c", parts) }`)
	fn := prog.Begin[0]
	slot, ok := prog.GlobalSlots["parts"]
	if !ok {
		t.Fatalf("expected a global slot for parts")
	}
	var sawCall bool
	for _, i := range fn.Code {
		if i.Op == bytecode.OpCallBuiltin && i.Str == "split" {
			sawCall = true
			if len(i.Args) < 2 {
				t.Fatalf("expected split's args to carry a destination array operand")
			}
			arg := i.Args[1]
			if arg.Bank != bytecode.BankStrMap {
				t.Errorf("expected split's 2nd argument in BankStrMap, got %v", arg.Bank)
			}
			_ = slot
		}
	}
	if !sawCall {
		t.Fatalf("expected an OpCallBuiltin split instruction")
	}
}

func TestLowerPrintRedirectCarriesTargetOperand(t *testing.T) {
	prog := compile(t, `BEGIN { print "hi" > "out.txt" }`)
	fn := prog.Begin[0]
	found := false
	for _, i := range fn.Code {
		if i.Op == bytecode.OpPrint {
			found = true
			if i.Str != ">" {
				t.Errorf("expected redirect operator \">\", got %q", i.Str)
			}
			if i.A.Bank != bytecode.BankStr {
				t.Errorf("expected redirect target operand in the Str bank, got %v", i.A.Bank)
			}
		}
	}
	if !found {
		t.Fatalf("expected an OpPrint instruction")
	}
}
