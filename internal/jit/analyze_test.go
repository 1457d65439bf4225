package jit

import (
	"testing"

	"zawk/internal/bytecode"
)

func intOp(reg int) bytecode.Operand { return bytecode.Operand{Bank: bytecode.BankInt, Reg: reg} }

func TestAnalyzeLoopCounter(t *testing.T) {
	// i = 0; for (; i < n; i++) {}  -- counter reg 0, limit reg 3, step 1.
	code := []bytecode.Instr{
		{Op: bytecode.OpLoadIntK, Dst: intOp(1), Imm: 1},
		{Op: bytecode.OpAddI, Dst: intOp(0), A: intOp(0), B: intOp(1)},
		{Op: bytecode.OpCmpLtI, Dst: intOp(2), A: intOp(0), B: intOp(3)},
		{Op: bytecode.OpJumpIfFalse, A: intOp(2), Target: 5},
		{Op: bytecode.OpJump, Target: 0},
	}
	a := AnalyzeLoop(code, 0, 4)
	if a.MatchedTemplate != TemplateCounter {
		t.Fatalf("MatchedTemplate = %v, want %v", a.MatchedTemplate, TemplateCounter)
	}
	if a.CounterReg != 0 || a.LimitReg != 3 || a.StepReg != 1 {
		t.Errorf("got counter=%d limit=%d step=%d, want 0,3,1", a.CounterReg, a.LimitReg, a.StepReg)
	}
}

func TestAnalyzeLoopSum(t *testing.T) {
	// sum = 0; for (i = 0; i < n; i++) sum += i;
	code := []bytecode.Instr{
		{Op: bytecode.OpLoadIntK, Dst: intOp(2), Imm: 1},
		{Op: bytecode.OpAddI, Dst: intOp(0), A: intOp(0), B: intOp(2)},
		{Op: bytecode.OpCmpLtI, Dst: intOp(3), A: intOp(0), B: intOp(1)},
		{Op: bytecode.OpAddI, Dst: intOp(4), A: intOp(4), B: intOp(0)},
		{Op: bytecode.OpJumpIfFalse, A: intOp(3), Target: 6},
		{Op: bytecode.OpJump, Target: 0},
	}
	a := AnalyzeLoop(code, 0, 5)
	if a.MatchedTemplate != TemplateSum {
		t.Fatalf("MatchedTemplate = %v, want %v", a.MatchedTemplate, TemplateSum)
	}
	if a.AccumReg != 4 {
		t.Errorf("AccumReg = %d, want 4", a.AccumReg)
	}
}

func TestAnalyzeLoopUnknownOnDisallowedOp(t *testing.T) {
	code := []bytecode.Instr{
		{Op: bytecode.OpLoadIntK, Dst: intOp(1), Imm: 1},
		{Op: bytecode.OpAddI, Dst: intOp(0), A: intOp(0), B: intOp(1)},
		{Op: bytecode.OpCallBuiltin, Str: "length"},
		{Op: bytecode.OpJump, Target: 0},
	}
	a := AnalyzeLoop(code, 0, 3)
	if a.MatchedTemplate != TemplateUnknown {
		t.Errorf("MatchedTemplate = %v, want %v", a.MatchedTemplate, TemplateUnknown)
	}
}

func TestFindLoops(t *testing.T) {
	code := []bytecode.Instr{
		{Op: bytecode.OpLoadIntK, Dst: intOp(1), Imm: 1},
		{Op: bytecode.OpAddI, Dst: intOp(0), A: intOp(0), B: intOp(1)},
		{Op: bytecode.OpCmpLtI, Dst: intOp(2), A: intOp(0), B: intOp(3)},
		{Op: bytecode.OpJumpIfFalse, A: intOp(2), Target: 5},
		{Op: bytecode.OpJump, Target: 0},
		{Op: bytecode.OpReturn},
	}
	fn := &bytecode.Func{Name: "loopy", Code: code}
	loops := FindLoops(fn)
	if len(loops) != 1 {
		t.Fatalf("FindLoops returned %d loops, want 1", len(loops))
	}
	if loops[0].MatchedTemplate != TemplateCounter {
		t.Errorf("MatchedTemplate = %v, want %v", loops[0].MatchedTemplate, TemplateCounter)
	}
}
