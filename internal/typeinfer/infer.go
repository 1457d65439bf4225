package typeinfer

import (
	"fmt"
	"math"
	"sort"

	"zawk/internal/errors"
	"zawk/internal/ir"
)

// Spec is one monomorphized instantiation of a user function: a
// distinct (name, param-type-tuple) pair gets its own specialized body.
type Spec struct {
	Func       *ir.Func // original, unspecialized body
	Key        string
	ParamTypes []Type
	ReturnType Type
	TempTypes  []Type
}

// Result is the fully typed program: one TempTypes slice per phase
// Func plus the monomorphized function specializations, the resolved
// global scalar types, and array element/key types keyed by name.
type Result struct {
	Globals    map[string]Type
	ArrayKey   map[string]Type // Int or Str
	ArrayVal   map[string]Type
	PhaseTemps map[*ir.Func][]Type
	Specs      map[string][]*Spec // by original func name
}

type inferer struct {
	prog      *ir.Program
	arrayUses map[string]bool
	res       *Result
	specsBy   map[string]map[string]*Spec // name -> tupleKey -> Spec
}

// Infer runs the monotone worklist to a fixed point (bounded by
// lattice height × |vars|, spec §8 P5) and returns the typed program.
// It also enforces invariant I1 (scalar/array confusion is a fatal
// compile-time TypeError).
func Infer(prog *ir.Program, arrayUses map[string]bool) (*Result, error) {
	inf := &inferer{
		prog:      prog,
		arrayUses: arrayUses,
		res: &Result{
			Globals:    map[string]Type{},
			ArrayKey:   map[string]Type{},
			ArrayVal:   map[string]Type{},
			PhaseTemps: map[*ir.Func][]Type{},
			Specs:      map[string][]*Spec{},
		},
		specsBy: map[string]map[string]*Spec{},
	}
	for name := range arrayUses {
		inf.res.ArrayKey[name] = Unknown
		inf.res.ArrayVal[name] = Unknown
	}

	const maxIters = 12
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for _, f := range inf.allPhaseFuncs() {
			if inf.runFunc(f, nil) {
				changed = true
			}
		}
		for _, byTuple := range inf.specsBy {
			for _, sp := range byTuple {
				if inf.runFunc(sp.Func, sp) {
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}

	if err := inf.checkArrayScalarConflict(); err != nil {
		return nil, err
	}
	// An array whose subscripts never settled a key type (a split()
	// destination that is never indexed, say) is keyed by Str.
	for name := range arrayUses {
		if inf.res.ArrayKey[name] == Unknown {
			inf.res.ArrayKey[name] = Str
		}
	}
	for name, specs := range inf.specsBy {
		for _, sp := range specs {
			inf.res.Specs[name] = append(inf.res.Specs[name], sp)
		}
		sort.Slice(inf.res.Specs[name], func(i, j int) bool {
			return inf.res.Specs[name][i].Key < inf.res.Specs[name][j].Key
		})
	}
	return inf.res, nil
}

func (inf *inferer) allPhaseFuncs() []*ir.Func {
	var fs []*ir.Func
	fs = append(fs, inf.prog.Begin...)
	for _, f := range inf.prog.Patterns {
		if f != nil {
			fs = append(fs, f)
		}
	}
	fs = append(fs, inf.prog.Main...)
	fs = append(fs, inf.prog.End...)
	return fs
}

func (inf *inferer) checkArrayScalarConflict() error {
	for name := range inf.arrayUses {
		if t, ok := inf.res.Globals[name]; ok && t != Unknown {
			return errors.Typef(errors.Location{}, "%q used as both scalar and array", name)
		}
	}
	return nil
}

// runFunc makes one forward pass over f's blocks in construction
// order, which (since every ir.Temp is produced by exactly one
// instruction — see ir.Temp's doc comment) guarantees each Temp's
// producer has already run before any of its uses are visited. It
// returns whether any shared (global/array) type changed.
func (inf *inferer) runFunc(f *ir.Func, sp *Spec) bool {
	tt := make([]Type, f.NumTemps)
	paramType := map[string]Type{}
	if sp != nil {
		for i, pname := range f.Params {
			if i < len(sp.ParamTypes) {
				paramType[pname] = sp.ParamTypes[i]
			}
		}
	}
	changed := false
	get := func(t ir.Temp) Type {
		if t < 0 || int(t) >= len(tt) {
			return Unknown
		}
		return tt[t]
	}
	set := func(t ir.Temp, ty Type) {
		if t >= 0 && int(t) < len(tt) {
			tt[t] = ty
		}
	}
	loadVar := func(name string) Type {
		if ty, ok := paramType[name]; ok {
			return ty
		}
		return inf.res.Globals[name]
	}
	storeVar := func(name string, ty Type) {
		if _, ok := paramType[name]; ok {
			// locals never widen the shared Globals map
			paramType[name] = join(paramType[name], ty)
			return
		}
		old := inf.res.Globals[name]
		nw := join(old, ty)
		if nw != old {
			inf.res.Globals[name] = nw
			changed = true
		}
	}
	var retType Type
	var curIterArray string
	flatIdx := -1
	for _, blk := range f.Blocks {
		for _, instr := range blk.Instrs {
			flatIdx++
			switch instr.Op {
			case ir.OpConstNum:
				if instr.Num == math.Trunc(instr.Num) && !math.IsInf(instr.Num, 0) {
					set(instr.Dst, Int)
				} else {
					set(instr.Dst, Float)
				}
			case ir.OpConstStr, ir.OpConstRegex:
				set(instr.Dst, Str)
			case ir.OpLoadVar:
				set(instr.Dst, loadVar(instr.Str))
			case ir.OpStoreVar:
				storeVar(instr.Str, get(instr.Args[0]))
			case ir.OpLoadField:
				set(instr.Dst, Str)
			case ir.OpStoreField:
				// no-op for types: fields are always Str
			case ir.OpArrayGet:
				inf.unifyArrayKey(instr.Str, instr.Subs, get)
				set(instr.Dst, inf.res.ArrayVal[instr.Str])
			case ir.OpArraySet:
				inf.unifyArrayKey(instr.Str, instr.Subs, get)
				vt := get(instr.Args[0])
				old := inf.res.ArrayVal[instr.Str]
				nw := join(old, vt)
				if nw != old {
					inf.res.ArrayVal[instr.Str] = nw
					changed = true
				}
			case ir.OpArrayDelete:
				if len(instr.Subs) > 0 {
					inf.unifyArrayKey(instr.Str, instr.Subs, get)
				}
			case ir.OpArrayIn:
				inf.unifyArrayKey(instr.Str, instr.Subs, get)
				set(instr.Dst, Int)
			case ir.OpIterInit:
				curIterArray = instr.Str
			case ir.OpIterEnd:
				// no value produced
			case ir.OpIterNext:
				keyT := inf.res.ArrayKey[curIterArray]
				if keyT == Unknown {
					keyT = Str
				}
				set(instr.Dst, keyT)
				storeVar(instr.Str, keyT) // Str here is the loop variable name
			case ir.OpBinary:
				set(instr.Dst, binaryResultType(instr.Str, get(instr.Args[0]), get(instr.Args[1])))
			case ir.OpUnary:
				if instr.Str == "!" {
					set(instr.Dst, Int)
				} else {
					t := get(instr.Args[0])
					if t == Str || t == Unknown {
						t = Float
					}
					set(instr.Dst, t)
				}
			case ir.OpConcat:
				set(instr.Dst, Str)
			case ir.OpMatch:
				set(instr.Dst, Int)
			case ir.OpCall:
				rt := inf.inferCall(f, flatIdx, instr, get)
				set(instr.Dst, rt)
			case ir.OpArrayRef:
				kt := inf.res.ArrayKey[instr.Str]
				if kt == Int {
					set(instr.Dst, IntMap)
				} else {
					set(instr.Dst, StrMap)
				}
			case ir.OpGetline:
				set(instr.Dst, Int)
				if instr.Str != "" {
					storeVar(instr.Str, Str)
				}
			case ir.OpSubst:
				set(instr.Dst, Int)
				switch instr.GM {
				case 1:
					storeVar(instr.Str, Str)
				case 2:
					inf.unifyArrayKey(instr.Str, instr.Subs, get)
					old := inf.res.ArrayVal[instr.Str]
					nw := join(old, Str)
					if nw != old {
						inf.res.ArrayVal[instr.Str] = nw
						changed = true
					}
				}
			case ir.OpPop, ir.OpPrint, ir.OpPrintf, ir.OpJump, ir.OpJumpIfFalse,
				ir.OpLabel, ir.OpNext, ir.OpNextfile, ir.OpExit:
				// no result type
			case ir.OpReturn:
				if len(instr.Args) > 0 && instr.Args[0] >= 0 {
					retType = join(retType, get(instr.Args[0]))
				}
			}
		}
	}
	inf.res.PhaseTemps[f] = tt
	if sp != nil {
		if retType != sp.ReturnType {
			sp.ReturnType = retType
			changed = true
		}
		sp.TempTypes = tt
	}
	return changed
}

func (inf *inferer) unifyArrayKey(name string, subs []ir.Temp, get func(ir.Temp) Type) {
	if len(subs) == 0 {
		return
	}
	kt := Str
	if len(subs) == 1 {
		st := get(subs[0])
		if st == Int || st == Float {
			kt = Int
		}
	}
	old := inf.res.ArrayKey[name]
	nw := join(old, kt)
	if nw == Unknown {
		nw = kt
	}
	inf.res.ArrayKey[name] = nw
}

func binaryResultType(op string, l, r Type) Type {
	switch op {
	case "/":
		// AWK division is always real division (3/2 == 1.5); even two
		// Int operands need a Float result register.
		return Float
	case "+", "-", "*", "%", "^":
		if l == Float || r == Float {
			return Float
		}
		return Int
	case "<", "<=", ">", ">=", "==", "!=", "&&", "||":
		return Int
	default:
		return Str
	}
}

// inferCall resolves a call's return type: either a fixed builtin
// signature, or the (possibly still-Unknown, refined by later outer
// iterations) return type of a monomorphized user-function spec keyed
// by this call site's observed argument-type tuple.
func (inf *inferer) inferCall(caller *ir.Func, _ int, instr ir.Instr, get func(ir.Temp) Type) Type {
	if rt, ok := builtinReturn[instr.Str]; ok {
		return rt
	}
	target, ok := inf.prog.Funcs[instr.Str]
	if !ok {
		return Str
	}
	tuple := make([]Type, len(instr.Args))
	for i, a := range instr.Args {
		tuple[i] = get(a)
	}
	key := tupleKey(tuple)
	if inf.specsBy[instr.Str] == nil {
		inf.specsBy[instr.Str] = map[string]*Spec{}
	}
	sp, ok := inf.specsBy[instr.Str][key]
	if !ok {
		sp = &Spec{Func: target, Key: key, ParamTypes: tuple}
		inf.specsBy[instr.Str][key] = sp
	}
	return sp.ReturnType
}

// KeyForTypes exposes tupleKey to internal/compiler, which must derive
// the identical key from a call site's already-resolved argument banks
// to find the matching Spec.
func KeyForTypes(tuple []Type) string { return tupleKey(tuple) }

func tupleKey(tuple []Type) string {
	s := ""
	for i, t := range tuple {
		if i > 0 {
			s += ","
		}
		s += t.String()
	}
	if s == "" {
		s = "()"
	}
	return s
}

// MonoName is the bytecode-lowerer-facing name for a specialization:
// always name$key, e.g. "f$Int,Str", or "f$()" for a zero-argument
// function, even when f has a single specialization.
func MonoName(name, key string) string {
	return fmt.Sprintf("%s$%s", name, key)
}
