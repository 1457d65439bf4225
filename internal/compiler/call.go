package compiler

import (
	"zawk/internal/bytecode"
	"zawk/internal/ir"
	"zawk/internal/typeinfer"
)

// lowerCall resolves a call site to either a builtin dispatch (by
// name, the interpreter's builtin table does the rest) or a specific
// monomorphized bytecode.Func id, recomputing the same call-site type
// tuple typeinfer used to key the specialization so the two agree.
func (fc *funcLowerer) lowerCall(instr ir.Instr) {
	if _, isUser := fc.prog.Funcs[instr.Str]; !isUser {
		args := make([]bytecode.Operand, len(instr.Args))
		for i, a := range instr.Args {
			args[i] = fc.reg(a)
		}
		fc.emit(bytecode.Instr{Op: bytecode.OpCallBuiltin, Dst: fc.reg(instr.Dst), Str: instr.Str, Args: args, Loc: instr.Loc})
		return
	}

	tuple := make([]typeinfer.Type, len(instr.Args))
	for i, a := range instr.Args {
		tuple[i] = fc.typ(a)
	}
	key := typeinfer.KeyForTypes(tuple)
	id := fc.funcIDs[instr.Str][key]

	paramBanks := fc.lowerer.funcParamBanks(instr.Str, key)
	args := make([]bytecode.Operand, len(instr.Args))
	for i, a := range instr.Args {
		want := bankOf(tuple[i])
		if i < len(paramBanks) {
			want = paramBanks[i]
		}
		args[i] = fc.convert(fc.reg(a), fc.bank(a), want)
	}
	fc.emit(bytecode.Instr{Op: bytecode.OpCallUser, Dst: fc.reg(instr.Dst), Args: args, Imm: float64(id), Str: instr.Str, Loc: instr.Loc})
}

// lowerGetline emits the read itself, then — only when it actually
// produced a line (result == 1; EOF/error must leave the previous
// target value untouched) — an ordinary store into whatever the target
// resolves to, using the ordinary assignment machinery (OpStoreField
// for a field target, OpMove/OpStoreGlobal otherwise). This keeps
// target resolution free of the global-vs-local ambiguity a single
// Operand on OpGetline itself would have: a store instruction's
// destination is always unambiguous, exactly like any other assignment.
func (fc *funcLowerer) lowerGetline(instr ir.Instr) {
	src, fieldIdx := ir.Temp(-1), ir.Temp(-1)
	if len(instr.Args) > 0 {
		src = instr.Args[0]
	}
	if len(instr.Args) > 1 {
		fieldIdx = instr.Args[1]
	}

	lineReg := fc.ra.alloc(bytecode.BankStr)
	out := bytecode.Instr{Op: bytecode.OpGetline, Dst: fc.reg(instr.Dst), B: lineReg, Str: instr.Str, Imm: float64(instr.GM), Loc: instr.Loc}
	out.A.Bank = bytecode.BankNone
	if src >= 0 {
		out.A = fc.convert(fc.reg(src), fc.bank(src), bytecode.BankStr)
	}
	fc.emit(out)

	one := fc.ra.alloc(bytecode.BankInt)
	fc.emit(bytecode.Instr{Op: bytecode.OpLoadIntK, Dst: one, Imm: 1})
	cond := fc.ra.alloc(bytecode.BankInt)
	fc.emit(bytecode.Instr{Op: bytecode.OpCmpEqI, Dst: cond, A: fc.reg(instr.Dst), B: one})
	skipAt := fc.emit(bytecode.Instr{Op: bytecode.OpJumpIfFalse, A: cond})

	switch {
	case instr.Negate && fieldIdx >= 0:
		idx := fc.convert(fc.reg(fieldIdx), fc.bank(fieldIdx), bytecode.BankInt)
		fc.emit(bytecode.Instr{Op: bytecode.OpStoreField, A: idx, B: lineReg, Loc: instr.Loc})
	case instr.Str != "":
		if p, ok := fc.paramOperand[instr.Str]; ok {
			fc.emit(bytecode.Instr{Op: bytecode.OpMove, Dst: p, A: lineReg, Loc: instr.Loc})
		} else {
			g := fc.globalSlots[instr.Str]
			fc.emit(bytecode.Instr{Op: bytecode.OpStoreGlobal, A: g, B: lineReg, Str: instr.Str, Loc: instr.Loc})
		}
	default:
		zero := fc.ra.alloc(bytecode.BankInt)
		fc.emit(bytecode.Instr{Op: bytecode.OpLoadIntK, Dst: zero, Imm: 0})
		fc.emit(bytecode.Instr{Op: bytecode.OpStoreField, A: zero, B: lineReg, Loc: instr.Loc})
	}
	fc.out.Code[skipAt].Target = len(fc.out.Code)
}

// lowerSubst emits sub()/gsub() as a load of the target's current
// value, the OpSubst substitution itself, and then an unconditional
// store of the result back into the target — unlike getline, sub/gsub
// always has a new value to write (a non-match just writes back the
// unchanged subject), so there's no guarding OpJumpIfFalse here.
func (fc *funcLowerer) lowerSubst(instr ir.Instr) {
	pattern := fc.convert(fc.reg(instr.Args[0]), fc.bank(instr.Args[0]), bytecode.BankStr)
	repl := fc.convert(fc.reg(instr.Args[1]), fc.bank(instr.Args[1]), bytecode.BankStr)

	var current bytecode.Operand
	switch instr.GM {
	case 1: // var
		if p, ok := fc.paramOperand[instr.Str]; ok {
			current = fc.convert(p, p.Bank, bytecode.BankStr)
		} else {
			g := fc.globalSlots[instr.Str]
			loaded := fc.ra.alloc(g.Bank)
			fc.emit(bytecode.Instr{Op: bytecode.OpLoadGlobal, Dst: loaded, A: g, Str: instr.Str, Loc: instr.Loc})
			current = fc.convert(loaded, g.Bank, bytecode.BankStr)
		}
	case 2: // array element
		key := fc.arrayKey(instr.Str, instr.Subs)
		op := bytecode.OpArrGetS
		if fc.arrayBank[instr.Str] == bytecode.BankIntMap {
			op = bytecode.OpArrGetI
		}
		valBank := bankOf(fc.typed.ArrayVal[instr.Str])
		raw := fc.ra.alloc(valBank)
		fc.emit(bytecode.Instr{Op: op, Dst: raw, A: key, B: fc.arrayOperand(instr.Str), Str: instr.Str, Loc: instr.Loc})
		current = fc.convert(raw, valBank, bytecode.BankStr)
	default: // field ($0 or $idx), index is the 3rd Args entry
		idx := fc.convert(fc.reg(instr.Args[2]), fc.bank(instr.Args[2]), bytecode.BankInt)
		loaded := fc.ra.alloc(bytecode.BankStr)
		fc.emit(bytecode.Instr{Op: bytecode.OpLoadField, Dst: loaded, A: idx, Loc: instr.Loc})
		current = loaded
	}

	result := fc.ra.alloc(bytecode.BankStr)
	imm := 0.0
	if instr.Negate {
		imm = 1
	}
	fc.emit(bytecode.Instr{Op: bytecode.OpSubst, Dst: fc.reg(instr.Dst), A: current, B: pattern, Args: []bytecode.Operand{repl, result}, Imm: imm, Loc: instr.Loc})

	switch instr.GM {
	case 1:
		if p, ok := fc.paramOperand[instr.Str]; ok {
			src := fc.convert(result, bytecode.BankStr, p.Bank)
			fc.emit(bytecode.Instr{Op: bytecode.OpMove, Dst: p, A: src, Loc: instr.Loc})
		} else {
			g := fc.globalSlots[instr.Str]
			src := fc.convert(result, bytecode.BankStr, g.Bank)
			fc.emit(bytecode.Instr{Op: bytecode.OpStoreGlobal, A: g, B: src, Str: instr.Str, Loc: instr.Loc})
		}
	case 2:
		key := fc.arrayKey(instr.Str, instr.Subs)
		arrBank := fc.arrayBank[instr.Str]
		valBank := bankOf(fc.typed.ArrayVal[instr.Str])
		val := fc.convert(result, bytecode.BankStr, valBank)
		op := bytecode.OpArrSetS
		if arrBank == bytecode.BankIntMap {
			op = bytecode.OpArrSetI
		}
		fc.emit(bytecode.Instr{Op: op, A: key, B: val, Args: []bytecode.Operand{fc.arrayOperand(instr.Str)}, Str: instr.Str, Loc: instr.Loc})
	default:
		idx := fc.convert(fc.reg(instr.Args[2]), fc.bank(instr.Args[2]), bytecode.BankInt)
		fc.emit(bytecode.Instr{Op: bytecode.OpStoreField, A: idx, B: result, Loc: instr.Loc})
	}
}

func (fc *funcLowerer) lowerPrint(instr ir.Instr) {
	op := bytecode.OpPrint
	if instr.Op == ir.OpPrintf {
		op = bytecode.OpPrintf
	}
	args := make([]bytecode.Operand, len(instr.Args))
	for i, a := range instr.Args {
		// printf's value operands (everything past the format string)
		// keep their inferred bank rather than being forced to Str: the
		// formatter needs to know whether a %c argument was originally
		// numeric or a string to pick the right conversion (spec §4's
		// printf resolution), and %d/%x/%o need the actual number
		// rather than a reparsed CONVFMT-formatted string.
		if op == bytecode.OpPrintf && i > 0 {
			args[i] = fc.reg(a)
			continue
		}
		args[i] = fc.convert(fc.reg(a), fc.bank(a), bytecode.BankStr)
	}
	out := bytecode.Instr{Op: op, Args: args, Str: instr.Str, Loc: instr.Loc}
	if instr.Str != "" && len(instr.Subs) > 0 {
		target := fc.convert(fc.reg(instr.Subs[0]), fc.bank(instr.Subs[0]), bytecode.BankStr)
		out.A = target
	}
	fc.emit(out)
}
