package vm

import (
	"math"

	"zawk/internal/bytecode"
	"zawk/internal/errors"
	"zawk/internal/runtime"
)

// sigKind is what a function body handed back to its caller: a normal
// fallthrough off the end of Code (sigReturn with no A operand is
// indistinguishable from this and handled the same way), an explicit
// return, or one of the three statements that unwind through nested
// calls per spec §4.A (next/nextfile/exit all propagate through
// OpCallUser exactly like a panic/recover would, just typed instead).
type sigKind int

const (
	sigReturn sigKind = iota
	sigNext
	sigNextfile
	sigExit
)

// retValue is a bank-tagged scalar carried out of execFunc, since the
// callee's RetBank (and a bare pattern func's truthiness register) can
// be any of the three scalar banks.
type retValue struct {
	bank bytecode.Bank
	i    int64
	f    float64
	s    *runtime.StrBuf
}

func aliasStr(f *frame, o bytecode.Operand, s *runtime.StrBuf) {
	v := runtime.Value{Kind: runtime.KStr, Str: s}
	v = v.Retain()
	f.setStr(o, v.Str)
}

// call binds args (operands in callerFrame, or nil for a parameterless
// phase) into fn's own parameter registers — the lowest register of
// each bank, in declaration order, per the calling convention fixed by
// internal/compiler — then runs fn to completion.
func (m *Machine) call(fn *bytecode.Func, callerFrame *frame, args []bytecode.Operand) (retValue, sigKind, int, error) {
	nf := newFrame(fn)
	bankPos := map[bytecode.Bank]int{}
	for i := 0; i < len(args) && i < fn.NumParam; i++ {
		b := fn.ParamBanks[i]
		dst := bytecode.Operand{Bank: b, Reg: bankPos[b]}
		bankPos[b]++
		if callerFrame == nil {
			continue
		}
		src := args[i]
		switch b {
		case bytecode.BankInt:
			nf.ints[dst.Reg] = callerFrame.getInt(src)
		case bytecode.BankFloat:
			nf.floats[dst.Reg] = callerFrame.getFloat(src)
		case bytecode.BankStr:
			aliasStr(nf, dst, callerFrame.getStr(src))
		case bytecode.BankIntMap:
			nf.intmaps[dst.Reg] = callerFrame.getIntMap(src)
		case bytecode.BankStrMap:
			nf.strmaps[dst.Reg] = callerFrame.getStrMap(src)
		}
	}
	return m.execFunc(fn, nf)
}

func (m *Machine) execFunc(fn *bytecode.Func, fr *frame) (retValue, sigKind, int, error) {
	code := fn.Code
	pc := 0
	for pc < len(code) {
		instr := code[pc]
		switch instr.Op {
		case bytecode.OpNop:

		case bytecode.OpLoadIntK:
			fr.setInt(instr.Dst, int64(instr.Imm))
		case bytecode.OpLoadFloatK:
			fr.setFloat(instr.Dst, instr.Imm)
		case bytecode.OpLoadStrK:
			fr.setStr(instr.Dst, runtime.NewStrBuf(instr.Str))

		case bytecode.OpMove:
			switch instr.Dst.Bank {
			case bytecode.BankInt:
				fr.setInt(instr.Dst, fr.getInt(instr.A))
			case bytecode.BankFloat:
				fr.setFloat(instr.Dst, fr.getFloat(instr.A))
			case bytecode.BankStr:
				aliasStr(fr, instr.Dst, fr.getStr(instr.A))
			case bytecode.BankIntMap:
				fr.setIntMap(instr.Dst, fr.getIntMap(instr.A))
			case bytecode.BankStrMap:
				fr.setStrMap(instr.Dst, fr.getStrMap(instr.A))
			case bytecode.BankIter:
				fr.setIter(instr.Dst, fr.getIter(instr.A))
			}

		case bytecode.OpIntToFloat:
			fr.setFloat(instr.Dst, float64(fr.getInt(instr.A)))
		case bytecode.OpFloatToInt:
			fr.setInt(instr.Dst, int64(fr.getFloat(instr.A)))
		case bytecode.OpNumToStr:
			var v runtime.Value
			if instr.A.Bank == bytecode.BankInt {
				v = runtime.Int(fr.getInt(instr.A))
			} else {
				v = runtime.Float(fr.getFloat(instr.A))
			}
			fr.setStr(instr.Dst, runtime.NewStrBuf(v.String(m.convFmt())))
		case bytecode.OpStrToNum:
			n, _ := fr.getStr(instr.A).Number()
			fr.setFloat(instr.Dst, n)

		case bytecode.OpAddI:
			fr.setInt(instr.Dst, fr.getInt(instr.A)+fr.getInt(instr.B))
		case bytecode.OpSubI:
			fr.setInt(instr.Dst, fr.getInt(instr.A)-fr.getInt(instr.B))
		case bytecode.OpMulI:
			fr.setInt(instr.Dst, fr.getInt(instr.A)*fr.getInt(instr.B))
		case bytecode.OpDivI:
			b := fr.getInt(instr.B)
			if b == 0 {
				return retValue{}, sigReturn, 0, errors.Runtimef(errors.Arithmetic, instr.Loc, "division by zero")
			}
			fr.setInt(instr.Dst, fr.getInt(instr.A)/b)
		case bytecode.OpModI:
			b := fr.getInt(instr.B)
			if b == 0 {
				return retValue{}, sigReturn, 0, errors.Runtimef(errors.Arithmetic, instr.Loc, "division by zero in %%")
			}
			fr.setInt(instr.Dst, fr.getInt(instr.A)%b)
		case bytecode.OpPowI:
			fr.setInt(instr.Dst, int64(math.Pow(float64(fr.getInt(instr.A)), float64(fr.getInt(instr.B)))))
		case bytecode.OpNegI:
			fr.setInt(instr.Dst, -fr.getInt(instr.A))

		case bytecode.OpAddF:
			fr.setFloat(instr.Dst, fr.getFloat(instr.A)+fr.getFloat(instr.B))
		case bytecode.OpSubF:
			fr.setFloat(instr.Dst, fr.getFloat(instr.A)-fr.getFloat(instr.B))
		case bytecode.OpMulF:
			fr.setFloat(instr.Dst, fr.getFloat(instr.A)*fr.getFloat(instr.B))
		case bytecode.OpDivF:
			b := fr.getFloat(instr.B)
			if b == 0 {
				return retValue{}, sigReturn, 0, errors.Runtimef(errors.Arithmetic, instr.Loc, "division by zero")
			}
			fr.setFloat(instr.Dst, fr.getFloat(instr.A)/b)
		case bytecode.OpModF:
			fr.setFloat(instr.Dst, math.Mod(fr.getFloat(instr.A), fr.getFloat(instr.B)))
		case bytecode.OpPowF:
			fr.setFloat(instr.Dst, math.Pow(fr.getFloat(instr.A), fr.getFloat(instr.B)))
		case bytecode.OpNegF:
			fr.setFloat(instr.Dst, -fr.getFloat(instr.A))

		case bytecode.OpCmpEqI:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) == fr.getInt(instr.B)))
		case bytecode.OpCmpLtI:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) < fr.getInt(instr.B)))
		case bytecode.OpCmpLeI:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) <= fr.getInt(instr.B)))
		case bytecode.OpCmpEqF:
			fr.setInt(instr.Dst, boolInt(fr.getFloat(instr.A) == fr.getFloat(instr.B)))
		case bytecode.OpCmpLtF:
			fr.setInt(instr.Dst, boolInt(fr.getFloat(instr.A) < fr.getFloat(instr.B)))
		case bytecode.OpCmpLeF:
			fr.setInt(instr.Dst, boolInt(fr.getFloat(instr.A) <= fr.getFloat(instr.B)))
		case bytecode.OpCmpStr:
			fr.setInt(instr.Dst, boolInt(cmpStr(fr.getStr(instr.A).Bytes, fr.getStr(instr.B).Bytes, instr.Imm)))

		case bytecode.OpNot:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) == 0))
		case bytecode.OpAndI:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) != 0 && fr.getInt(instr.B) != 0))
		case bytecode.OpOrI:
			fr.setInt(instr.Dst, boolInt(fr.getInt(instr.A) != 0 || fr.getInt(instr.B) != 0))
		case bytecode.OpToBool:
			fr.setInt(instr.Dst, boolInt(fr.value(instr.A).Bool()))

		case bytecode.OpConcat:
			var b []byte
			for _, a := range instr.Args {
				b = append(b, fr.getStr(a).Bytes...)
			}
			fr.setStr(instr.Dst, runtime.NewStrBuf(string(b)))

		case bytecode.OpMatch:
			re, err := m.regex.Compile(fr.getStr(instr.B).Bytes)
			if err != nil {
				return retValue{}, sigReturn, 0, errors.Runtimef(errors.Regex, instr.Loc, "%s", err)
			}
			hit := re.MatchString(fr.getStr(instr.A).Bytes)
			if instr.Imm != 0 {
				hit = !hit
			}
			fr.setInt(instr.Dst, boolInt(hit))

		case bytecode.OpSubst:
			re, err := m.regex.Compile(fr.getStr(instr.B).Bytes)
			if err != nil {
				return retValue{}, sigReturn, 0, errors.Runtimef(errors.Regex, instr.Loc, "%s", err)
			}
			subject := fr.getStr(instr.A).Bytes
			repl := fr.getStr(instr.Args[0]).Bytes
			out, count := substituteAWK(re, subject, repl, instr.Imm != 0)
			fr.setInt(instr.Dst, int64(count))
			fr.setStr(instr.Args[1], runtime.NewStrBuf(out))

		case bytecode.OpLoadField:
			ofs := m.ofs()
			idx := int(fr.getInt(instr.A))
			var s string
			if idx == 0 {
				s = m.record.Raw(ofs)
			} else {
				s = m.record.Field(idx)
			}
			fr.setStr(instr.Dst, runtime.NewStrBuf(s))
		case bytecode.OpStoreField:
			idx := int(fr.getInt(instr.A))
			if idx == 0 {
				m.record.SetRaw(fr.getStr(instr.B).Bytes, m.fs())
			} else {
				m.record.SetField(idx, fr.getStr(instr.B).Bytes, m.ofs())
			}

		case bytecode.OpLoadNF:
			fr.setInt(instr.Dst, int64(m.record.NF()))
		case bytecode.OpStoreNF:
			m.record.SetNF(int(fr.getInt(instr.A)), m.ofs())

		case bytecode.OpLoadGlobal:
			m.loadGlobal(fr, instr.Dst, instr.A)
		case bytecode.OpStoreGlobal:
			m.storeGlobal(fr, instr.A, instr.B)

		case bytecode.OpArrGetI:
			v, ok := m.intMapFor(fr, instr.B).Get(fr.getInt(instr.A))
			if !ok {
				v = runtime.Uninit
			}
			fr.setValue(instr.Dst, v)
		case bytecode.OpArrSetI:
			v := fr.value(instr.B)
			m.intMapFor(fr, instr.Args[0]).Set(fr.getInt(instr.A), v)
		case bytecode.OpArrGetS:
			v, ok := m.strMapFor(fr, instr.B).Get(fr.getStr(instr.A).Bytes)
			if !ok {
				v = runtime.Uninit
			}
			fr.setValue(instr.Dst, v)
		case bytecode.OpArrSetS:
			v := fr.value(instr.B)
			m.strMapFor(fr, instr.Args[0]).Set(fr.getStr(instr.A).Bytes, v)
		case bytecode.OpArrDelI:
			m.intMapFor(fr, instr.B).Delete(fr.getInt(instr.A))
		case bytecode.OpArrDelS:
			m.strMapFor(fr, instr.B).Delete(fr.getStr(instr.A).Bytes)
		case bytecode.OpArrDelAll:
			if instr.A.Bank == bytecode.BankIntMap {
				m.intMapFor(fr, instr.A).DeleteAll()
			} else {
				m.strMapFor(fr, instr.A).DeleteAll()
			}
		case bytecode.OpArrInI:
			_, ok := m.intMapFor(fr, instr.B).Get(fr.getInt(instr.A))
			fr.setInt(instr.Dst, boolInt(ok))
		case bytecode.OpArrInS:
			_, ok := m.strMapFor(fr, instr.B).Get(fr.getStr(instr.A).Bytes)
			fr.setInt(instr.Dst, boolInt(ok))

		case bytecode.OpIterInitI:
			keys := m.intMapFor(fr, instr.A).Keys()
			fr.setIter(instr.Dst, &arrIter{keysI: keys, isInt: true})
		case bytecode.OpIterInitS:
			keys := m.strMapFor(fr, instr.A).Keys()
			fr.setIter(instr.Dst, &arrIter{keysS: keys})
		case bytecode.OpIterNext:
			it := fr.getIter(instr.A)
			ik, sk, ok := it.next()
			if !ok {
				pc = instr.Target
				continue
			}
			if it.isInt {
				fr.setValue(instr.Dst, runtime.Int(ik))
			} else {
				fr.setStr(instr.Dst, runtime.NewStrBuf(sk))
			}
		case bytecode.OpIterEnd:

		case bytecode.OpCallUser:
			callee := m.prog.Funcs[int(instr.Imm)]
			rv, sig, code2, err := m.call(callee, fr, instr.Args)
			if err != nil {
				return retValue{}, sigReturn, 0, err
			}
			if sig != sigReturn {
				return retValue{}, sig, code2, nil
			}
			storeRet(fr, instr.Dst, rv)
		case bytecode.OpCallBuiltin:
			v, err := m.callBuiltin(fr, instr)
			if err != nil {
				return retValue{}, sigReturn, 0, err
			}
			fr.setValue(instr.Dst, v)

		case bytecode.OpGetline:
			n, err := m.doGetline(fr, instr)
			if err != nil {
				return retValue{}, sigReturn, 0, err
			}
			fr.setInt(instr.Dst, n)

		case bytecode.OpPrint:
			if err := m.doPrint(fr, instr); err != nil {
				return retValue{}, sigReturn, 0, err
			}
		case bytecode.OpPrintf:
			if err := m.doPrintf(fr, instr); err != nil {
				return retValue{}, sigReturn, 0, err
			}

		case bytecode.OpJump:
			pc = instr.Target
			continue
		case bytecode.OpJumpIfFalse:
			if fr.getInt(instr.A) == 0 {
				pc = instr.Target
				continue
			}

		case bytecode.OpNext:
			return retValue{}, sigNext, 0, nil
		case bytecode.OpNextfile:
			return retValue{}, sigNextfile, 0, nil
		case bytecode.OpExit:
			code2 := 0
			if instr.A.Bank != bytecode.BankNone {
				code2 = int(fr.getInt(instr.A))
			}
			return retValue{}, sigExit, code2, nil

		case bytecode.OpReturn:
			return loadRet(fr, instr.A), sigReturn, 0, nil
		}
		pc++
	}
	return retValue{}, sigReturn, 0, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func cmpStr(a, b string, relop float64) bool {
	switch relop {
	case -1:
		return a < b
	case -2:
		return a <= b
	case 0:
		return a == b
	case 1:
		return a > b
	case 2:
		return a >= b
	case 3:
		return a != b
	}
	return false
}

func (m *Machine) loadGlobal(fr *frame, dst, g bytecode.Operand) {
	switch g.Bank {
	case bytecode.BankInt:
		fr.setInt(dst, m.globalInt[g.Reg])
	case bytecode.BankFloat:
		fr.setFloat(dst, m.globalFloat[g.Reg])
	case bytecode.BankStr:
		if m.globalStr[g.Reg] == nil {
			m.globalStr[g.Reg] = runtime.NewStrBuf("")
		}
		aliasStr(fr, dst, m.globalStr[g.Reg])
	case bytecode.BankIntMap:
		fr.setIntMap(dst, m.intMapGlobal(g))
	case bytecode.BankStrMap:
		fr.setStrMap(dst, m.strMapGlobal(g))
	}
}

func (m *Machine) storeGlobal(fr *frame, g, src bytecode.Operand) {
	switch g.Bank {
	case bytecode.BankInt:
		m.globalInt[g.Reg] = fr.getInt(src)
	case bytecode.BankFloat:
		m.globalFloat[g.Reg] = fr.getFloat(src)
	case bytecode.BankStr:
		old := m.globalStr[g.Reg]
		v := runtime.Value{Kind: runtime.KStr, Str: fr.getStr(src)}.Retain()
		m.globalStr[g.Reg] = v.Str
		if old != nil {
			old.Release()
		}
	case bytecode.BankIntMap:
		m.globalIntMap[g.Reg] = fr.getIntMap(src)
	case bytecode.BankStrMap:
		m.globalStrMap[g.Reg] = fr.getStrMap(src)
	}
}

func (m *Machine) intMapGlobal(o bytecode.Operand) *runtime.IntMap {
	if m.globalIntMap[o.Reg] == nil {
		m.globalIntMap[o.Reg] = runtime.NewIntMap()
	}
	return m.globalIntMap[o.Reg]
}

func (m *Machine) strMapGlobal(o bytecode.Operand) *runtime.StrMap {
	if m.globalStrMap[o.Reg] == nil {
		m.globalStrMap[o.Reg] = runtime.NewStrMap()
	}
	return m.globalStrMap[o.Reg]
}

// intMapFor/strMapFor resolve an array operand that may name either a
// local (parameter) register or a global slot, since OpArr*'s B/A
// operand carries whichever the compiler resolved it to.
func (m *Machine) intMapFor(fr *frame, o bytecode.Operand) *runtime.IntMap {
	if o.Bank == bytecode.BankNone {
		return runtime.NewIntMap()
	}
	return fr.getIntMap(o)
}

func (m *Machine) strMapFor(fr *frame, o bytecode.Operand) *runtime.StrMap {
	if o.Bank == bytecode.BankNone {
		return runtime.NewStrMap()
	}
	return fr.getStrMap(o)
}

func storeRet(fr *frame, dst bytecode.Operand, rv retValue) {
	switch rv.bank {
	case bytecode.BankInt:
		fr.setInt(dst, rv.i)
	case bytecode.BankFloat:
		fr.setFloat(dst, rv.f)
	case bytecode.BankStr:
		if rv.s == nil {
			rv.s = runtime.NewStrBuf("")
		}
		aliasStr(fr, dst, rv.s)
	}
}

func loadRet(fr *frame, a bytecode.Operand) retValue {
	switch a.Bank {
	case bytecode.BankInt:
		return retValue{bank: bytecode.BankInt, i: fr.getInt(a)}
	case bytecode.BankFloat:
		return retValue{bank: bytecode.BankFloat, f: fr.getFloat(a)}
	case bytecode.BankStr:
		return retValue{bank: bytecode.BankStr, s: fr.getStr(a)}
	default:
		return retValue{}
	}
}
