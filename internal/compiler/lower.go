// Package compiler lowers the typed IR (internal/ir + internal/typeinfer)
// into the register-addressed bytecode (internal/bytecode) the
// interpreter and JIT share. Every monomorphized user-function
// specialization becomes its own bytecode.Func; phase bodies
// (BEGIN/pattern/main-rule/END) are lowered once each, untouched by
// monomorphization.
package compiler

import (
	"fmt"

	"zawk/internal/bytecode"
	"zawk/internal/ir"
	"zawk/internal/typeinfer"
)

func bankOf(t typeinfer.Type) bytecode.Bank {
	switch t {
	case typeinfer.Int:
		return bytecode.BankInt
	case typeinfer.Float:
		return bytecode.BankFloat
	case typeinfer.IntMap:
		return bytecode.BankIntMap
	case typeinfer.StrMap:
		return bytecode.BankStrMap
	case typeinfer.Iter:
		return bytecode.BankIter
	default:
		// Unknown (never written, e.g. a variable only ever read) and
		// Str both store as Str: AWK's uninitialized scalar prints as
		// "" and compares as 0, which Str("") already gives for free.
		return bytecode.BankStr
	}
}

// Lower produces a complete bytecode.Program from the typed IR.
func Lower(prog *ir.Program, typed *typeinfer.Result) *bytecode.Program {
	l := &lowerer{
		prog:        prog,
		typed:       typed,
		globalSlots: map[string]bytecode.Operand{},
		arrayBank:   map[string]bytecode.Bank{},
		funcIDs:     map[string]map[string]int{}, // name -> key -> id
	}
	for name, t := range typed.Globals {
		l.slotFor(name, bankOf(t))
	}
	for name, t := range typed.ArrayKey {
		bank := bytecode.BankStrMap
		if t == typeinfer.Int {
			bank = bytecode.BankIntMap
		}
		l.arrayBank[name] = bank
		// Every array name gets a global slot even when it turns out to
		// only ever be used as a function parameter in practice: a
		// parameter lookup in arrayOperand always takes priority, so an
		// unused global slot here is harmless, but a name that genuinely
		// is a top-level array (the common case — arrays declared and
		// used outside any function) would otherwise have no storage at
		// all, since it never appears in typed.Globals (that map is
		// scalar-only).
		l.slotFor(name, bank)
	}

	out := &bytecode.Program{
		GlobalSlots: l.globalSlots,
		ArrayBank:   l.arrayBank,
	}

	// Assign IDs to every monomorphized specialization up front so
	// forward/recursive/mutually-recursive calls resolve.
	for name, specs := range typed.Specs {
		l.funcIDs[name] = map[string]int{}
		for _, sp := range specs {
			id := len(out.Funcs)
			l.funcIDs[name][sp.Key] = id
			out.Funcs = append(out.Funcs, nil) // placeholder, filled below
		}
	}

	for name, specs := range typed.Specs {
		for _, sp := range specs {
			id := l.funcIDs[name][sp.Key]
			fn := l.lowerFunc(sp.Func, sp.TempTypes, paramBanks(sp.ParamTypes), bankOf(sp.ReturnType))
			fn.Name = typeinfer.MonoName(name, sp.Key)
			fn.ID = id
			out.Funcs[id] = fn
		}
	}

	for _, f := range prog.Begin {
		out.Begin = append(out.Begin, l.lowerPhase(f))
	}
	for _, f := range prog.Patterns {
		if f == nil {
			out.Patterns = append(out.Patterns, nil)
			continue
		}
		out.Patterns = append(out.Patterns, l.lowerPhase(f))
	}
	for _, f := range prog.Main {
		out.Main = append(out.Main, l.lowerPhase(f))
	}
	for _, f := range prog.End {
		out.End = append(out.End, l.lowerPhase(f))
	}
	return out
}

func paramBanks(types []typeinfer.Type) []bytecode.Bank {
	banks := make([]bytecode.Bank, len(types))
	for i, t := range types {
		banks[i] = bankOf(t)
	}
	return banks
}

func (l *lowerer) lowerPhase(f *ir.Func) *bytecode.Func {
	return l.lowerFunc(f, l.typed.PhaseTemps[f], nil, bytecode.BankNone)
}

type lowerer struct {
	prog        *ir.Program
	typed       *typeinfer.Result
	globalSlots map[string]bytecode.Operand
	arrayBank   map[string]bytecode.Bank
	funcIDs     map[string]map[string]int

	slotCounts map[bytecode.Bank]int
}

// funcParamBanks returns the parameter banks for a specific
// monomorphized specialization, so a caller can convert its actual
// arguments to exactly what that specialization expects.
func (l *lowerer) funcParamBanks(name, key string) []bytecode.Bank {
	for _, sp := range l.typed.Specs[name] {
		if sp.Key == key {
			return paramBanks(sp.ParamTypes)
		}
	}
	return nil
}

func (l *lowerer) slotFor(name string, bank bytecode.Bank) bytecode.Operand {
	if op, ok := l.globalSlots[name]; ok {
		return op
	}
	if l.slotCounts == nil {
		l.slotCounts = map[bytecode.Bank]int{}
	}
	idx := l.slotCounts[bank]
	l.slotCounts[bank]++
	op := bytecode.Operand{Bank: bank, Reg: idx}
	l.globalSlots[name] = op
	return op
}
