package jit

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// CompiledLoop is what Compile hands back: the generated module plus
// whether it's actually callable. Linked is always false in this
// build — nothing downstream of here turns the IR into machine code
// and a function pointer the interpreter could jump to, so P1 holds
// unconditionally: a recognized loop changes nothing about what a
// program does, only what internal/jit did on the side.
type CompiledLoop struct {
	Module  *ir.Module
	Func    *ir.Func
	Linked  bool
	Status  string
}

// Compile lowers a, a recognized loop from AnalyzeLoop, to an LLVM
// function taking (start, limit, step) and returning the loop's final
// counter or accumulator value. Only TemplateCounter/TemplateSum/
// TemplateAccumulate are lowered; TemplateUnknown is an error, since
// there is nothing to compile.
func Compile(name string, a *LoopAnalysis, tier CompilationTier) (*CompiledLoop, error) {
	switch a.MatchedTemplate {
	case TemplateCounter:
		return compileCounter(name, a)
	case TemplateSum:
		return compileAccumulate(name, a, true)
	case TemplateAccumulate:
		return compileAccumulate(name, a, false)
	default:
		return nil, fmt.Errorf("jit: no template matched for %q, nothing to compile", name)
	}
}

// compileCounter builds: i64 @name(i64 start, i64 limit, i64 step) {
//   entry: br loop
//   loop:  i = phi [start, entry], [i.next, loop]
//          cond = icmp slt i, limit
//          i.next = add i, step
//          br cond, loop, exit
//   exit:  ret i
// }
func compileCounter(name string, a *LoopAnalysis) (*CompiledLoop, error) {
	m := ir.NewModule()
	start := ir.NewParam("start", types.I64)
	limit := ir.NewParam("limit", types.I64)
	step := ir.NewParam("step", types.I64)
	fn := m.NewFunc(name, types.I64, start, limit, step)

	entry := fn.NewBlock("entry")
	loop := fn.NewBlock("loop")
	exit := fn.NewBlock("exit")

	entry.NewBr(loop)

	counter := loop.NewPhi(ir.NewIncoming(start, entry))
	cond := loop.NewICmp(enum.IPredSLT, counter, limit)
	next := loop.NewAdd(counter, step)
	counter.Incs = append(counter.Incs, ir.NewIncoming(next, loop))
	loop.NewCondBr(cond, loop, exit)

	exit.NewRet(counter)

	return &CompiledLoop{Module: m, Func: fn, Linked: false, Status: "not linked, falling back to interpreter"}, nil
}

// compileAccumulate builds the counter loop above plus a second phi
// node that folds in either the running counter (sumsCounter, the
// TemplateSum case: accum += i) or the step value itself each
// iteration (the TemplateAccumulate case: accum += step), returning
// the accumulator instead of the counter.
func compileAccumulate(name string, a *LoopAnalysis, sumsCounter bool) (*CompiledLoop, error) {
	m := ir.NewModule()
	start := ir.NewParam("start", types.I64)
	limit := ir.NewParam("limit", types.I64)
	step := ir.NewParam("step", types.I64)
	fn := m.NewFunc(name, types.I64, start, limit, step)

	entry := fn.NewBlock("entry")
	loop := fn.NewBlock("loop")
	exit := fn.NewBlock("exit")

	zero := constant.NewInt(types.I64, 0)
	entry.NewBr(loop)

	counter := loop.NewPhi(ir.NewIncoming(start, entry))
	accum := loop.NewPhi(ir.NewIncoming(value.Value(zero), entry))
	cond := loop.NewICmp(enum.IPredSLT, counter, limit)

	var addend value.Value = step
	if sumsCounter {
		addend = counter
	}
	nextAccum := loop.NewAdd(accum, addend)
	nextCounter := loop.NewAdd(counter, step)

	counter.Incs = append(counter.Incs, ir.NewIncoming(nextCounter, loop))
	accum.Incs = append(accum.Incs, ir.NewIncoming(nextAccum, loop))
	loop.NewCondBr(cond, loop, exit)

	exit.NewRet(accum)

	return &CompiledLoop{Module: m, Func: fn, Linked: false, Status: "not linked, falling back to interpreter"}, nil
}
