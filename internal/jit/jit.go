// Package jit is the optional hot-loop backend (spec §4.F): a Profiler
// counts how often each compiled function runs, AnalyzeLoop recognizes
// a narrow family of integer/float counting and accumulation loops
// inside it, and Compile lowers a recognized loop to an
// github.com/llir/llvm module. P1 ("every program's observable
// behavior is identical whether or not the JIT ever fires") holds
// because nothing here is wired back into execution yet: Compile's
// result always reports Linked: false, and internal/vm's interpreter
// loop is the only thing that ever actually runs a program. Template
// detection and IR generation are real, not stubs, so the donor's
// always-false ExecuteJITUnsafe stub is gone; what remains in its
// place is the honest statement that this build never links the
// generated module into a callable function pointer.
package jit

import "zawk/internal/bytecode"

// CompilationTier mirrors the donor's tiered-JIT shape: a function is
// reconsidered for compilation once its call count crosses a
// threshold, and a higher tier gets more aggressive template matching.
type CompilationTier int

const (
	TierInterpreted CompilationTier = iota
	TierQuickJIT
	TierOptimized
)

// TemplateType is the loop shape AnalyzeLoop recognized, or
// TemplateUnknown when the loop body uses an opcode outside the
// restricted integer/float arithmetic-and-comparison subset this
// backend handles (spec §4.F).
type TemplateType int

const (
	TemplateUnknown TemplateType = iota
	TemplateCounter
	TemplateSum
	TemplateAccumulate
)

func (t TemplateType) String() string {
	switch t {
	case TemplateCounter:
		return "counter"
	case TemplateSum:
		return "sum"
	case TemplateAccumulate:
		return "accumulate"
	default:
		return "unknown"
	}
}

// Profiler tracks call counts per compiled function, the same
// threshold scheme the donor used: 100 calls promotes to tier 1, 1000
// to tier 2.
type Profiler struct {
	callCounts map[*bytecode.Func]int
}

func NewProfiler() *Profiler {
	return &Profiler{callCounts: make(map[*bytecode.Func]int)}
}

// RecordCall records one call against fn and reports whether this call
// just crossed a compilation threshold, and which tier to compile at.
func (p *Profiler) RecordCall(fn *bytecode.Func) (bool, CompilationTier) {
	p.callCounts[fn]++
	switch p.callCounts[fn] {
	case 100:
		return true, TierQuickJIT
	case 1000:
		return true, TierOptimized
	default:
		return false, TierInterpreted
	}
}
