package jit

import "testing"

func TestCompileUnknownTemplateErrors(t *testing.T) {
	a := &LoopAnalysis{MatchedTemplate: TemplateUnknown}
	if _, err := Compile("loop0", a, TierQuickJIT); err == nil {
		t.Error("Compile with TemplateUnknown should error, got nil")
	}
}

func TestCompileCounterNotLinked(t *testing.T) {
	a := &LoopAnalysis{MatchedTemplate: TemplateCounter, CounterReg: 0, LimitReg: 1, StepReg: 1}
	cl, err := Compile("loop1", a, TierQuickJIT)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if cl.Linked {
		t.Error("CompiledLoop.Linked = true, want false (never linked into the interpreter)")
	}
	if cl.Module == nil || cl.Func == nil {
		t.Error("Compile should still produce a Module and Func even though it's not linked")
	}
}

func TestCompileSumNotLinked(t *testing.T) {
	a := &LoopAnalysis{MatchedTemplate: TemplateSum, CounterReg: 0, LimitReg: 1, StepReg: 1, AccumReg: 2}
	cl, err := Compile("loop2", a, TierOptimized)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if cl.Linked {
		t.Error("CompiledLoop.Linked = true, want false")
	}
}
