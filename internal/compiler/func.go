package compiler

import (
	"zawk/internal/bytecode"
	"zawk/internal/ir"
	"zawk/internal/typeinfer"
)

// regAlloc hands out register indices within each bank for one
// function body. Temps get their slot first (index == position in
// appearance order within their bank); conversions and other
// compiler-introduced scratch values take the next free slot.
type regAlloc struct {
	counts map[bytecode.Bank]int
}

func newRegAlloc() *regAlloc { return &regAlloc{counts: map[bytecode.Bank]int{}} }

func (r *regAlloc) alloc(bank bytecode.Bank) bytecode.Operand {
	idx := r.counts[bank]
	r.counts[bank]++
	return bytecode.Operand{Bank: bank, Reg: idx}
}

func (l *lowerer) lowerFunc(f *ir.Func, tempTypes []typeinfer.Type, paramBanks []bytecode.Bank, retBank bytecode.Bank) *bytecode.Func {
	ra := newRegAlloc()

	// Parameters claim the lowest register in their bank, in
	// declaration order, before any temp is allocated. That lets the
	// VM reconstruct a param's register purely from ParamBanks at call
	// time (count same-bank entries before it) with no extra metadata
	// on bytecode.Func. Params are named like any other variable and
	// shadow a global of the same name within this body, so
	// OpLoadVar/OpStoreVar consult paramOperand before globalSlots.
	paramOperand := map[string]bytecode.Operand{}
	for i, name := range f.Params {
		paramOperand[name] = ra.alloc(paramBanks[i])
	}

	tempReg := make([]bytecode.Operand, f.NumTemps)
	tempBank := make([]bytecode.Bank, f.NumTemps)
	tempType := make([]typeinfer.Type, f.NumTemps)
	for i := 0; i < f.NumTemps; i++ {
		var ty typeinfer.Type
		if i < len(tempTypes) {
			ty = tempTypes[i]
		}
		tempType[i] = ty
		b := bankOf(ty)
		tempBank[i] = b
		tempReg[i] = ra.alloc(b)
	}

	fc := &funcLowerer{
		lowerer:      l,
		f:            f,
		ra:           ra,
		tempReg:      tempReg,
		tempBank:     tempBank,
		tempType:     tempType,
		paramOperand: paramOperand,
		out:          &bytecode.Func{Name: f.Name, NumParam: len(f.Params), ParamBanks: paramBanks, RetBank: retBank},
		labelAt:      map[ir.Label]int{},
	}
	for _, blk := range f.Blocks {
		fc.labelAt[blk.Label] = len(fc.out.Code)
		for _, instr := range blk.Instrs {
			fc.lowerInstr(instr)
		}
	}
	for _, p := range fc.pendingJumps {
		fc.out.Code[p.at].Target = fc.labelAt[p.label]
	}
	fc.out.RegCount = ra.counts
	return fc.out
}

type pendingJump struct {
	at    int
	label ir.Label
}

type funcLowerer struct {
	*lowerer
	f        *ir.Func
	ra       *regAlloc
	tempReg  []bytecode.Operand
	tempBank []bytecode.Bank
	tempType []typeinfer.Type
	paramOperand map[string]bytecode.Operand
	out      *bytecode.Func
	labelAt  map[ir.Label]int
	pendingJumps []pendingJump

	curIterArray string
	curIterReg   bytecode.Operand
}

func (fc *funcLowerer) emit(i bytecode.Instr) int {
	fc.out.Code = append(fc.out.Code, i)
	return len(fc.out.Code) - 1
}

func (fc *funcLowerer) reg(t ir.Temp) bytecode.Operand {
	if t < 0 || int(t) >= len(fc.tempReg) {
		return bytecode.Operand{}
	}
	return fc.tempReg[t]
}

func (fc *funcLowerer) typ(t ir.Temp) typeinfer.Type {
	if t < 0 || int(t) >= len(fc.tempType) {
		return typeinfer.Unknown
	}
	return fc.tempType[t]
}

// arrayOperand resolves a named array to its storage register, exactly
// like OpLoadVar's name lookup: a function parameter array shadows a
// same-named global within that body, so every array opcode can find
// the right IntMap/StrMap register without a runtime name lookup.
func (fc *funcLowerer) arrayOperand(name string) bytecode.Operand {
	if p, ok := fc.paramOperand[name]; ok {
		return p
	}
	return fc.globalSlots[name]
}

func (fc *funcLowerer) bank(t ir.Temp) bytecode.Bank {
	if t < 0 || int(t) >= len(fc.tempBank) {
		return bytecode.BankNone
	}
	return fc.tempBank[t]
}

// convert emits whatever's needed to reinterpret src (currently living
// in srcBank) as dstBank, returning the operand holding the converted
// value. A no-op when the banks already match.
func (fc *funcLowerer) convert(src bytecode.Operand, srcBank, dstBank bytecode.Bank) bytecode.Operand {
	if srcBank == dstBank {
		return src
	}
	switch {
	case srcBank == bytecode.BankInt && dstBank == bytecode.BankFloat:
		dst := fc.ra.alloc(bytecode.BankFloat)
		fc.emit(bytecode.Instr{Op: bytecode.OpIntToFloat, Dst: dst, A: src})
		return dst
	case srcBank == bytecode.BankFloat && dstBank == bytecode.BankInt:
		dst := fc.ra.alloc(bytecode.BankInt)
		fc.emit(bytecode.Instr{Op: bytecode.OpFloatToInt, Dst: dst, A: src})
		return dst
	case (srcBank == bytecode.BankInt || srcBank == bytecode.BankFloat) && dstBank == bytecode.BankStr:
		dst := fc.ra.alloc(bytecode.BankStr)
		fc.emit(bytecode.Instr{Op: bytecode.OpNumToStr, Dst: dst, A: src})
		return dst
	case srcBank == bytecode.BankStr && dstBank == bytecode.BankFloat:
		dst := fc.ra.alloc(bytecode.BankFloat)
		fc.emit(bytecode.Instr{Op: bytecode.OpStrToNum, Dst: dst, A: src})
		return dst
	case srcBank == bytecode.BankStr && dstBank == bytecode.BankInt:
		tmp := fc.ra.alloc(bytecode.BankFloat)
		fc.emit(bytecode.Instr{Op: bytecode.OpStrToNum, Dst: tmp, A: src})
		dst := fc.ra.alloc(bytecode.BankInt)
		fc.emit(bytecode.Instr{Op: bytecode.OpFloatToInt, Dst: dst, A: tmp})
		return dst
	default:
		// Array/Iter banks never need scalar conversion; return as-is.
		return src
	}
}

func (fc *funcLowerer) jumpTo(op bytecode.Op, cond *bytecode.Operand, label ir.Label) {
	instr := bytecode.Instr{Op: op}
	if cond != nil {
		instr.A = *cond
	}
	idx := fc.emit(instr)
	fc.pendingJumps = append(fc.pendingJumps, pendingJump{at: idx, label: label})
}
