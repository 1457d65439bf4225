package vm

import (
	"zawk/internal/bytecode"
	"zawk/internal/runtime"
)

// arrIter is a snapshotted key iterator: for-in order is unspecified by
// the language (spec §4.D), so a snapshot of Keys() taken at
// OpIterInitI/S time is both simplest and safe against mutation of the
// array mid-loop, which a live iterator over a Go map could not survive.
type arrIter struct {
	keysI []int64
	keysS []string
	pos   int
	isInt bool
}

func (it *arrIter) next() (int64, string, bool) {
	if it.isInt {
		if it.pos >= len(it.keysI) {
			return 0, "", false
		}
		k := it.keysI[it.pos]
		it.pos++
		return k, "", true
	}
	if it.pos >= len(it.keysS) {
		return 0, "", false
	}
	k := it.keysS[it.pos]
	it.pos++
	return 0, k, true
}

// frame is one call's local register banks, sized from the callee's
// bytecode.Func.RegCount so no bank ever needs to grow mid-call.
type frame struct {
	ints    []int64
	floats  []float64
	strs    []*runtime.StrBuf
	intmaps []*runtime.IntMap
	strmaps []*runtime.StrMap
	iters   []*arrIter
}

func newFrame(fn *bytecode.Func) *frame {
	return &frame{
		ints:    make([]int64, fn.RegCount[bytecode.BankInt]),
		floats:  make([]float64, fn.RegCount[bytecode.BankFloat]),
		strs:    make([]*runtime.StrBuf, fn.RegCount[bytecode.BankStr]),
		intmaps: make([]*runtime.IntMap, fn.RegCount[bytecode.BankIntMap]),
		strmaps: make([]*runtime.StrMap, fn.RegCount[bytecode.BankStrMap]),
		iters:   make([]*arrIter, fn.RegCount[bytecode.BankIter]),
	}
}

func (f *frame) getInt(o bytecode.Operand) int64     { return f.ints[o.Reg] }
func (f *frame) getFloat(o bytecode.Operand) float64 { return f.floats[o.Reg] }
func (f *frame) getStr(o bytecode.Operand) *runtime.StrBuf {
	s := f.strs[o.Reg]
	if s == nil {
		s = runtime.NewStrBuf("")
		f.strs[o.Reg] = s
	}
	return s
}

func (f *frame) getIntMap(o bytecode.Operand) *runtime.IntMap {
	m := f.intmaps[o.Reg]
	if m == nil {
		m = runtime.NewIntMap()
		f.intmaps[o.Reg] = m
	}
	return m
}

func (f *frame) getStrMap(o bytecode.Operand) *runtime.StrMap {
	m := f.strmaps[o.Reg]
	if m == nil {
		m = runtime.NewStrMap()
		f.strmaps[o.Reg] = m
	}
	return m
}

func (f *frame) getIter(o bytecode.Operand) *arrIter { return f.iters[o.Reg] }

func (f *frame) setInt(o bytecode.Operand, v int64)     { f.ints[o.Reg] = v }
func (f *frame) setFloat(o bytecode.Operand, v float64) { f.floats[o.Reg] = v }
func (f *frame) setStr(o bytecode.Operand, v *runtime.StrBuf) {
	old := f.strs[o.Reg]
	if old != nil {
		old.Release()
	}
	f.strs[o.Reg] = v
}
func (f *frame) setIntMap(o bytecode.Operand, v *runtime.IntMap)   { f.intmaps[o.Reg] = v }
func (f *frame) setStrMap(o bytecode.Operand, v *runtime.StrMap)   { f.strmaps[o.Reg] = v }
func (f *frame) setIter(o bytecode.Operand, v *arrIter)            { f.iters[o.Reg] = v }

// value reads whatever bank o names as a runtime.Value, for builtin
// calls and anywhere a bank-agnostic scalar is needed.
func (f *frame) value(o bytecode.Operand) runtime.Value {
	switch o.Bank {
	case bytecode.BankInt:
		return runtime.Int(f.getInt(o))
	case bytecode.BankFloat:
		return runtime.Float(f.getFloat(o))
	case bytecode.BankStr:
		return runtime.Value{Kind: runtime.KStr, Str: f.getStr(o)}
	default:
		return runtime.Uninit
	}
}

// setValue stores a runtime.Value into the bank o names, converting if
// the value's natural kind doesn't match (builtins return whatever
// scalar kind is natural for the result; the call site's Dst bank is
// fixed by type inference and may differ).
func (f *frame) setValue(o bytecode.Operand, v runtime.Value) {
	switch o.Bank {
	case bytecode.BankInt:
		f.setInt(o, v.Int64())
	case bytecode.BankFloat:
		f.setFloat(o, v.Float64())
	case bytecode.BankStr:
		f.setStr(o, runtime.NewStrBuf(v.String("")))
	}
}
