package jit

import "zawk/internal/bytecode"

// LoopAnalysis describes one backward-jump loop AnalyzeLoop examined.
// Counter/Limit/Accum name Int-bank register indices, -1 when the
// template doesn't use them; StepReg holds the loop's constant step
// value itself (negative for a decrementing loop), not a register.
type LoopAnalysis struct {
	MatchedTemplate TemplateType
	StartPC         int
	EndPC           int
	CounterReg      int
	LimitReg        int
	StepReg         int
	AccumReg        int
}

// loopBodyOpcodes is the restricted subset spec §4.F allows a JIT
// candidate to contain: integer/float arithmetic, comparison, and the
// control-flow/global-access ops a simple counting or accumulating
// loop needs. Any other opcode (array ops, string ops, calls, I/O,
// getline) disqualifies the loop and AnalyzeLoop reports
// TemplateUnknown, leaving it to the interpreter.
var loopBodyOpcodes = map[bytecode.Op]bool{
	bytecode.OpNop:         true,
	bytecode.OpLoadIntK:    true,
	bytecode.OpLoadFloatK:  true,
	bytecode.OpMove:        true,
	bytecode.OpIntToFloat:  true,
	bytecode.OpFloatToInt:  true,
	bytecode.OpAddI:        true,
	bytecode.OpSubI:        true,
	bytecode.OpMulI:        true,
	bytecode.OpAddF:        true,
	bytecode.OpSubF:        true,
	bytecode.OpMulF:        true,
	bytecode.OpCmpEqI:      true,
	bytecode.OpCmpLtI:      true,
	bytecode.OpCmpLeI:      true,
	bytecode.OpCmpEqF:      true,
	bytecode.OpCmpLtF:      true,
	bytecode.OpCmpLeF:      true,
	bytecode.OpNot:         true,
	bytecode.OpToBool:      true,
	bytecode.OpLoadGlobal:  true,
	bytecode.OpStoreGlobal: true,
	bytecode.OpJump:        true,
	bytecode.OpJumpIfFalse: true,
}

// FindLoops scans fn's code for backward jumps (OpJump whose Target is
// at or before the jump itself) and runs AnalyzeLoop over each
// candidate body, returning only the ones that matched a template.
func FindLoops(fn *bytecode.Func) []*LoopAnalysis {
	var found []*LoopAnalysis
	for pc, instr := range fn.Code {
		if instr.Op != bytecode.OpJump || instr.Target > pc {
			continue
		}
		if a := AnalyzeLoop(fn.Code, instr.Target, pc); a.MatchedTemplate != TemplateUnknown {
			found = append(found, a)
		}
	}
	return found
}

// AnalyzeLoop inspects code[startPC:endPC+1] (a candidate loop body
// ending in a backward OpJump) and classifies it as a counting loop
// (a single Int register incremented/decremented by a constant step
// and bounded by a comparison against another register), a sum loop
// (a second register accumulating the counter's own value each
// iteration), a more general accumulate loop (a second register
// accumulating something else each iteration), or unknown.
func AnalyzeLoop(code []bytecode.Instr, startPC, endPC int) *LoopAnalysis {
	a := &LoopAnalysis{
		MatchedTemplate: TemplateUnknown,
		StartPC:         startPC,
		EndPC:           endPC,
		CounterReg:      -1,
		LimitReg:        -1,
		StepReg:         -1,
		AccumReg:        -1,
	}
	if startPC < 0 || endPC >= len(code) || startPC > endPC {
		return a
	}
	for pc := startPC; pc <= endPC; pc++ {
		if !loopBodyOpcodes[code[pc].Op] {
			return a
		}
	}

	counterReg, stepImm, ok := findCounterUpdate(code, startPC, endPC)
	if !ok {
		return a
	}
	limitReg, ok := findBound(code, startPC, endPC, counterReg)
	if !ok {
		return a
	}
	a.CounterReg = counterReg
	a.LimitReg = limitReg
	a.StepReg = int(stepImm)
	a.MatchedTemplate = TemplateCounter

	if accumReg, sumsCounter, ok := findAccumulator(code, startPC, endPC, counterReg); ok {
		a.AccumReg = accumReg
		if sumsCounter {
			a.MatchedTemplate = TemplateSum
		} else {
			a.MatchedTemplate = TemplateAccumulate
		}
	}
	return a
}

// findCounterUpdate looks for the one OpAddI/OpSubI in the body whose
// Dst and A operand are the same Int register (an in-place i = i + k
// or i = i - k), and whose other operand is an immediate loaded by a
// preceding OpLoadIntK. That register is the loop counter.
func findCounterUpdate(code []bytecode.Instr, startPC, endPC int) (reg int, step int64, ok bool) {
	for pc := startPC; pc <= endPC; pc++ {
		in := code[pc]
		if in.Op != bytecode.OpAddI && in.Op != bytecode.OpSubI {
			continue
		}
		if in.Dst.Bank != bytecode.BankInt || in.A.Bank != bytecode.BankInt {
			continue
		}
		if in.Dst.Reg != in.A.Reg {
			continue
		}
		if imm, found := constIntSource(code, startPC, pc, in.B); found {
			if in.Op == bytecode.OpSubI {
				imm = -imm
			}
			return in.Dst.Reg, imm, true
		}
	}
	return 0, 0, false
}

// constIntSource walks backward from before pc for the most recent
// OpLoadIntK that wrote op's register, the loop's own small,
// straight-line way of resolving "what constant is in this register".
func constIntSource(code []bytecode.Instr, startPC, pc int, op bytecode.Operand) (int64, bool) {
	if op.Bank != bytecode.BankInt {
		return 0, false
	}
	for i := pc - 1; i >= startPC; i-- {
		if code[i].Op == bytecode.OpLoadIntK && code[i].Dst.Reg == op.Reg {
			return int64(code[i].Imm), true
		}
	}
	return 0, false
}

// findBound looks for a comparison op in the body that reads
// counterReg against some other Int register, the loop guard that
// OpJumpIfFalse later exits on.
func findBound(code []bytecode.Instr, startPC, endPC, counterReg int) (int, bool) {
	for pc := startPC; pc <= endPC; pc++ {
		in := code[pc]
		switch in.Op {
		case bytecode.OpCmpLtI, bytecode.OpCmpLeI, bytecode.OpCmpEqI:
		default:
			continue
		}
		if in.A.Bank == bytecode.BankInt && in.A.Reg == counterReg && in.B.Bank == bytecode.BankInt {
			return in.B.Reg, true
		}
		if in.B.Bank == bytecode.BankInt && in.B.Reg == counterReg && in.A.Bank == bytecode.BankInt {
			return in.A.Reg, true
		}
	}
	return 0, false
}

// findAccumulator looks for a second in-place OpAddI, distinct from
// the counter update, whose added operand is either the counter
// itself (a sum-of-counter template) or anything else (a general
// accumulate template).
func findAccumulator(code []bytecode.Instr, startPC, endPC, counterReg int) (reg int, sumsCounter, ok bool) {
	for pc := startPC; pc <= endPC; pc++ {
		in := code[pc]
		if in.Op != bytecode.OpAddI || in.Dst.Bank != bytecode.BankInt || in.A.Bank != bytecode.BankInt {
			continue
		}
		if in.Dst.Reg != in.A.Reg || in.Dst.Reg == counterReg {
			continue
		}
		if in.B.Bank == bytecode.BankInt && in.B.Reg == counterReg {
			return in.Dst.Reg, true, true
		}
		return in.Dst.Reg, false, true
	}
	return 0, false, false
}
