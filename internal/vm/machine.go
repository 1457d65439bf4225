// Package vm is the register-machine interpreter for zawk's compiled
// bytecode (internal/bytecode). It is the runtime counterpart of
// internal/compiler: where the donor's vmregister NaN-boxes one flat
// Value bank per register, here each bank is its own typed Go slice
// (spec §4.D), so dispatch never needs to check a tag before doing
// arithmetic.
package vm

import (
	"zawk/internal/bytecode"
	"zawk/internal/errors"
	"zawk/internal/runtime"
)

// Builtin is a stdlib function's call signature. Machine is passed by
// pointer so a builtin can reach the regex cache, I/O table, PRNG, or
// issue a close()/system() against shared state; args/return are
// bank-agnostic runtime.Values, converted to/from registers at the
// OpCallBuiltin call site. split() is the one builtin that needs a raw
// array register instead of a Value and is special-cased directly in
// the interpreter rather than forced through this signature.
type Builtin func(m *Machine, args []runtime.Value) (runtime.Value, error)

// ArrayEntry is one cell an ArrayOutBuiltin contributes to the caller's
// destination array — IntKey for an IntMap destination, Key for a
// StrMap one (the interpreter picks the field to read from the actual
// array's bank, mirroring split()'s own IntMap/StrMap branch).
type ArrayEntry struct {
	IntKey int64
	Key    string
	Val    runtime.Value
}

// ArrayOutBuiltin is split()'s calling convention generalized to any
// builtin that fills an array out-parameter instead of (or in addition
// to) returning a scalar: json_decode, csv_decode, db_query. The
// non-array arguments arrive as ordinary Values; the returned entries
// are written into whichever bank the call site's array argument
// actually resolved to.
type ArrayOutBuiltin func(m *Machine, args []runtime.Value) (runtime.Value, []ArrayEntry, error)

// Output is where OpPrint/OpPrintf text goes; internal/output
// implements the printf subset and CSV/TSV record formatting (spec
// §4.J), keeping format-string parsing out of the interpreter.
type Output interface {
	Print(args []string, ofs, ors, redirectOp, target string) error
	Printf(format string, args []runtime.Value, convFmt, redirectOp, target string) error
	Flush() error
}

// Machine is one running program: the global register banks (shared
// across every phase and call), plus the shared runtime services every
// opcode or builtin may need.
type Machine struct {
	prog *bytecode.Program

	globalInt     []int64
	globalFloat   []float64
	globalStr     []*runtime.StrBuf
	globalIntMap  []*runtime.IntMap
	globalStrMap  []*runtime.StrMap

	regex   *runtime.RegexCache
	io      *runtime.IOTable
	prng    *runtime.PRNG
	out     Output
	record  Record
	input   Input
	builtins      map[string]Builtin
	arrayBuiltins map[string]ArrayOutBuiltin

	exitCode int
	exiting  bool
}

// NewMachine allocates the global register banks from prog's
// GlobalSlots and wires the shared runtime/output/record/builtin
// services a compiled program needs to run.
func NewMachine(prog *bytecode.Program, out Output, rec Record, in Input, builtins map[string]Builtin, arrayBuiltins map[string]ArrayOutBuiltin) *Machine {
	m := &Machine{
		prog:          prog,
		regex:         runtime.NewRegexCache(),
		io:            runtime.NewIOTable(),
		prng:          runtime.NewPRNG(),
		out:           out,
		record:        rec,
		input:         in,
		builtins:      builtins,
		arrayBuiltins: arrayBuiltins,
	}
	counts := map[bytecode.Bank]int{}
	for _, op := range prog.GlobalSlots {
		if op.Reg+1 > counts[op.Bank] {
			counts[op.Bank] = op.Reg + 1
		}
	}
	m.globalInt = make([]int64, counts[bytecode.BankInt])
	m.globalFloat = make([]float64, counts[bytecode.BankFloat])
	m.globalStr = make([]*runtime.StrBuf, counts[bytecode.BankStr])
	m.globalIntMap = make([]*runtime.IntMap, counts[bytecode.BankIntMap])
	m.globalStrMap = make([]*runtime.StrMap, counts[bytecode.BankStrMap])
	for name, bank := range prog.ArrayBank {
		op := prog.GlobalSlots[name]
		switch bank {
		case bytecode.BankIntMap:
			m.globalIntMap[op.Reg] = runtime.NewIntMap()
		case bytecode.BankStrMap:
			m.globalStrMap[op.Reg] = runtime.NewStrMap()
		}
	}
	return m
}

func (m *Machine) Regex() *runtime.RegexCache { return m.regex }
func (m *Machine) IOTable() *runtime.IOTable  { return m.io }
func (m *Machine) PRNG() *runtime.PRNG        { return m.prng }
func (m *Machine) Record() Record             { return m.record }

// GlobalStr reads a named global as a string, defaulting when the
// program never references that name (so it never got a GlobalSlots
// entry) — used for AWK's predeclared variables (FS, OFS, SUBSEP, ...),
// which zawk resolves as ordinary globals rather than special-casing
// them in the compiler (see DESIGN.md).
func (m *Machine) GlobalStr(name, def string) string {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return def
	}
	switch op.Bank {
	case bytecode.BankStr:
		if s := m.globalStr[op.Reg]; s != nil {
			return s.Bytes
		}
		return ""
	case bytecode.BankInt:
		return runtime.Int(m.globalInt[op.Reg]).String("")
	case bytecode.BankFloat:
		return runtime.Float(m.globalFloat[op.Reg]).String(m.GlobalStr("CONVFMT", "%.6g"))
	}
	return def
}

func (m *Machine) SetGlobalStr(name, val string) {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return
	}
	switch op.Bank {
	case bytecode.BankStr:
		old := m.globalStr[op.Reg]
		if old != nil {
			old.Release()
		}
		m.globalStr[op.Reg] = runtime.NewStrBuf(val)
	case bytecode.BankInt:
		m.globalInt[op.Reg] = runtime.Str(val).Int64()
	case bytecode.BankFloat:
		m.globalFloat[op.Reg] = runtime.Str(val).Float64()
	}
}

func (m *Machine) SetGlobalNum(name string, val float64) {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return
	}
	switch op.Bank {
	case bytecode.BankInt:
		m.globalInt[op.Reg] = int64(val)
	case bytecode.BankFloat:
		m.globalFloat[op.Reg] = val
	case bytecode.BankStr:
		old := m.globalStr[op.Reg]
		if old != nil {
			old.Release()
		}
		m.globalStr[op.Reg] = runtime.NewStrBuf(runtime.Float(val).String(""))
	}
}

func (m *Machine) GlobalNum(name string) float64 {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return 0
	}
	switch op.Bank {
	case bytecode.BankInt:
		return float64(m.globalInt[op.Reg])
	case bytecode.BankFloat:
		return m.globalFloat[op.Reg]
	case bytecode.BankStr:
		if s := m.globalStr[op.Reg]; s != nil {
			n, _ := s.Number()
			return n
		}
	}
	return 0
}

func (m *Machine) convFmt() string { return m.GlobalStr("CONVFMT", "%.6g") }
func (m *Machine) ofmt() string    { return m.GlobalStr("OFMT", "%.6g") }
func (m *Machine) fs() string      { return m.GlobalStr("FS", " ") }
func (m *Machine) ofs() string     { return m.GlobalStr("OFS", " ") }
func (m *Machine) ors() string     { return m.GlobalStr("ORS", "\n") }
func (m *Machine) rs() string      { return m.GlobalStr("RS", "\n") }
func (m *Machine) subsep() string  { return m.GlobalStr("SUBSEP", "\x1c") }

// ConvFmt, FS, OFS and SubSep are exported for internal/stdlib's
// builtins, which run outside the vm package and need the same
// "current value of a predeclared global" reads the interpreter itself
// uses.
func (m *Machine) ConvFmt() string { return m.convFmt() }
func (m *Machine) FS() string      { return m.fs() }
func (m *Machine) OFS() string     { return m.ofs() }
func (m *Machine) SubSep() string  { return m.subsep() }

// GlobalScalar reads a named global scalar in its native bank, for
// internal/parallel's BEGIN-once snapshot and reduction merge (spec
// §4.I, OQ3): those need the raw typed value, not a string/float
// coercion the way GlobalStr/GlobalNum give callers inside a running
// program.
func (m *Machine) GlobalScalar(name string) (runtime.Value, bool) {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return runtime.Uninit, false
	}
	switch op.Bank {
	case bytecode.BankInt:
		return runtime.Int(m.globalInt[op.Reg]), true
	case bytecode.BankFloat:
		return runtime.Float(m.globalFloat[op.Reg]), true
	case bytecode.BankStr:
		if s := m.globalStr[op.Reg]; s != nil {
			return runtime.Value{Kind: runtime.KStr, Str: s}, true
		}
		return runtime.Uninit, true
	}
	return runtime.Uninit, false
}

// SetGlobalScalar writes a named global scalar in its native bank, the
// counterpart to GlobalScalar used to seed a shard from a BEGIN
// snapshot or to install a merged reduction result before END runs.
func (m *Machine) SetGlobalScalar(name string, v runtime.Value) {
	op, ok := m.prog.GlobalSlots[name]
	if !ok {
		return
	}
	switch op.Bank {
	case bytecode.BankInt:
		m.globalInt[op.Reg] = v.Int64()
	case bytecode.BankFloat:
		m.globalFloat[op.Reg] = v.Float64()
	case bytecode.BankStr:
		old := m.globalStr[op.Reg]
		if old != nil {
			old.Release()
		}
		m.globalStr[op.Reg] = runtime.NewStrBuf(v.String(m.convFmt()))
	}
}

// GlobalArray returns the named global array's live IntMap/StrMap, for
// internal/parallel to read a shard's final counts during @reduce
// merge or to seed a fresh shard/END machine with merged contents.
func (m *Machine) GlobalArray(name string) (intMap *runtime.IntMap, strMap *runtime.StrMap, ok bool) {
	op, present := m.prog.GlobalSlots[name]
	if !present {
		return nil, nil, false
	}
	switch op.Bank {
	case bytecode.BankIntMap:
		return m.globalIntMap[op.Reg], nil, true
	case bytecode.BankStrMap:
		return nil, m.globalStrMap[op.Reg], true
	}
	return nil, nil, false
}

// GlobalNames lists every global the compiled program declared, so
// internal/parallel can snapshot BEGIN's effects across all of them
// without duplicating the compiler's slot table.
func (m *Machine) GlobalNames() []string {
	names := make([]string, 0, len(m.prog.GlobalSlots))
	for name := range m.prog.GlobalSlots {
		names = append(names, name)
	}
	return names
}

// FlushOutput flushes the output engine's stdout sink; builtins that
// shell out (system()) or otherwise need output ordering relative to
// an external process call this first.
func (m *Machine) FlushOutput() error { return m.out.Flush() }

// RunBegin executes every BEGIN block in source order.
func (m *Machine) RunBegin() error {
	for _, fn := range m.prog.Begin {
		if _, sig, code, err := m.call(fn, nil, nil); err != nil {
			return err
		} else if sig == sigExit {
			m.exiting = true
			m.exitCode = code
			return nil
		}
	}
	return nil
}

// RunEnd executes every END block in source order. It still runs when
// exit was called earlier (per spec §4.A), but a second exit from
// within END terminates immediately with its own code.
func (m *Machine) RunEnd() error {
	for _, fn := range m.prog.End {
		if _, sig, code, err := m.call(fn, nil, nil); err != nil {
			return err
		} else if sig == sigExit {
			m.exitCode = code
			return nil
		}
	}
	return nil
}

// ExitCode is the code a prior exit statement requested, or 0.
func (m *Machine) ExitCode() int { return m.exitCode }

// RunRecord evaluates every pattern/action rule against the record
// currently installed in m.Record(), honoring next/nextfile/exit.
// Returns true if a nextfile was requested.
func (m *Machine) RunRecord() (nextfile bool, err error) {
	for i, fn := range m.prog.Main {
		if pat := m.prog.Patterns[i]; pat != nil {
			rv, sig, code, err := m.call(pat, nil, nil)
			if err != nil {
				return false, err
			}
			if sig == sigExit {
				m.exiting = true
				m.exitCode = code
				return false, nil
			}
			if !truthy(rv) {
				continue
			}
		}
		_, sig, code, err := m.call(fn, nil, nil)
		if err != nil {
			return false, err
		}
		switch sig {
		case sigNext:
			return false, nil
		case sigNextfile:
			return true, nil
		case sigExit:
			m.exiting = true
			m.exitCode = code
			return false, nil
		}
	}
	return false, nil
}

// Exiting reports whether an exit statement has fired, so the driver
// loop (internal/parallel or cmd/zawk's serial fallback) can stop
// pulling records and go straight to END.
func (m *Machine) Exiting() bool { return m.exiting }

// Run drives the whole BEGIN -> per-record -> END pipeline against a
// single serial Input. Parallel execution (internal/parallel) shards
// Input and runs this same per-record loop per shard instead.
func (m *Machine) Run() (int, error) {
	if err := m.RunBegin(); err != nil {
		return 0, err
	}
	if m.input != nil {
		for !m.exiting {
			line, ok, err := m.input.Next(m.rs())
			if err != nil {
				return 0, errors.Wrap(err, "run", errors.Location{})
			}
			if !ok {
				break
			}
			m.record.SetParagraphMode(m.rs() == "")
			m.record.SetRaw(line, m.fs())
			m.SetGlobalNum("NR", float64(m.input.NR()))
			m.SetGlobalNum("FNR", float64(m.input.FNR()))
			m.SetGlobalStr("FILENAME", m.input.Filename())
			nextfile, err := m.RunRecord()
			if err != nil {
				return 0, err
			}
			if nextfile {
				m.input.SkipFile()
			}
		}
	}
	if err := m.RunEnd(); err != nil {
		return 0, err
	}
	return m.exitCode, nil
}

func truthy(rv retValue) bool {
	switch rv.bank {
	case bytecode.BankInt:
		return rv.i != 0
	case bytecode.BankFloat:
		return rv.f != 0
	case bytecode.BankStr:
		if rv.s == nil {
			return false
		}
		v := runtime.Value{Kind: runtime.KStr, Str: rv.s}
		return v.Bool()
	default:
		return false
	}
}
