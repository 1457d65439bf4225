package vm

import (
	"strconv"

	"zawk/internal/bytecode"
	"zawk/internal/errors"
	"zawk/internal/parser"
	"zawk/internal/runtime"
)

// arrayOutPos names the builtins whose call lowers one argument
// position to an array reference rather than a scalar (mirrors
// ir.arrayOutParams, which is what made the call site's operand a real
// array register in the first place).
var arrayOutPos = map[string]int{
	"json_decode": 1,
	"csv_decode":  1,
	"db_query":    2,
}

func (m *Machine) callBuiltin(fr *frame, instr bytecode.Instr) (runtime.Value, error) {
	if instr.Str == "split" {
		return m.callSplit(fr, instr)
	}
	if pos, ok := arrayOutPos[instr.Str]; ok {
		return m.callArrayOutBuiltin(fr, instr, pos)
	}
	fn, ok := m.builtins[instr.Str]
	if !ok {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, instr.Loc, "calling undefined function %s", instr.Str)
	}
	args := make([]runtime.Value, len(instr.Args))
	for i, a := range instr.Args {
		args[i] = fr.value(a)
	}
	v, err := fn(m, args)
	if err != nil {
		return runtime.Uninit, errors.Wrap(err, "run", instr.Loc)
	}
	return v, nil
}

// callArrayOutBuiltin is split()'s array-destination handling
// generalized: the argument at arrPos is a real IntMap/StrMap register
// (internal/ir's arrayOutParams + internal/compiler's OpArrayRef
// lowering guarantee that), every other argument is read as an
// ordinary scalar, and the ArrayOutBuiltin's returned entries replace
// the destination array's contents in whichever bank it actually is.
func (m *Machine) callArrayOutBuiltin(fr *frame, instr bytecode.Instr, arrPos int) (runtime.Value, error) {
	fn, ok := m.arrayBuiltins[instr.Str]
	if !ok {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, instr.Loc, "calling undefined function %s", instr.Str)
	}
	if arrPos >= len(instr.Args) {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, instr.Loc, "%s: missing array argument", instr.Str)
	}
	args := make([]runtime.Value, 0, len(instr.Args)-1)
	for i, a := range instr.Args {
		if i == arrPos {
			continue
		}
		args = append(args, fr.value(a))
	}
	ret, entries, err := fn(m, args)
	if err != nil {
		return runtime.Uninit, errors.Wrap(err, "run", instr.Loc)
	}
	arrOp := instr.Args[arrPos]
	if arrOp.Bank == bytecode.BankStrMap {
		am := fr.getStrMap(arrOp)
		am.DeleteAll()
		for _, e := range entries {
			am.Set(e.Key, e.Val)
		}
	} else {
		am := fr.getIntMap(arrOp)
		am.DeleteAll()
		for _, e := range entries {
			am.Set(e.IntKey, e.Val)
		}
	}
	return ret, nil
}

// callSplit is hard-coded rather than routed through the Builtin table
// because it needs the raw destination array register, not a Value.
func (m *Machine) callSplit(fr *frame, instr bytecode.Instr) (runtime.Value, error) {
	if len(instr.Args) < 2 {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, instr.Loc, "split: requires at least 2 arguments")
	}
	s := fr.value(instr.Args[0]).String(m.convFmt())
	fs := m.fs()
	if len(instr.Args) >= 3 {
		fs = fr.value(instr.Args[2]).String(m.convFmt())
	}
	parts := runtime.SplitFields(s, fs, m.regex)
	arrOp := instr.Args[1]
	if arrOp.Bank == bytecode.BankStrMap {
		am := fr.getStrMap(arrOp)
		am.DeleteAll()
		for i, p := range parts {
			am.Set(strconv.Itoa(i+1), runtime.Str(p))
		}
	} else {
		am := fr.getIntMap(arrOp)
		am.DeleteAll()
		for i, p := range parts {
			am.Set(int64(i+1), runtime.Str(p))
		}
	}
	return runtime.Int(int64(len(parts))), nil
}

// doGetline implements all three getline forms (spec §4.H), returning
// 1 on success, 0 on EOF, -1 on error (never returned as a Go error —
// getline failures are soft per spec §7, surfaced only through its
// return value).
func (m *Machine) doGetline(fr *frame, instr bytecode.Instr) (int64, error) {
	mode := parser.GetlineMode(int(instr.Imm))
	var line string
	var ok bool
	var err error

	switch mode {
	case parser.GetlineSimple:
		if m.input == nil {
			return 0, nil
		}
		line, ok, err = m.input.Next(m.rs())
		if err == nil && ok {
			m.SetGlobalNum("NR", float64(m.input.NR()))
			m.SetGlobalNum("FNR", float64(m.input.FNR()))
			m.SetGlobalStr("FILENAME", m.input.Filename())
		}
	case parser.GetlineFile:
		name := fr.getStr(instr.A).Bytes
		st, oerr := m.io.InputFile(name)
		if oerr != nil {
			return -1, nil
		}
		line, err = st.Reader().Next(m.rs(), m.regex)
		ok = err == nil
	case parser.GetlineCommand:
		cmdline := fr.getStr(instr.A).Bytes
		st, oerr := m.io.InputPipe(cmdline)
		if oerr != nil {
			return -1, nil
		}
		line, err = st.Reader().Next(m.rs(), m.regex)
		ok = err == nil
	}

	if err != nil || !ok {
		return 0, nil // EOF or read error both end the stream softly
	}

	// Per POSIX's getline table: plain getline (both forms) updates
	// NR/FNR, "cmd | getline" updates NR only, "getline < file" updates
	// neither. GetlineSimple already synced both above via m.input.
	if mode == parser.GetlineCommand {
		m.SetGlobalNum("NR", m.GlobalNum("NR")+1)
	}
	fr.setStr(instr.B, runtime.NewStrBuf(line))
	return 1, nil
}

func (m *Machine) redirectTarget(fr *frame, instr bytecode.Instr) string {
	if instr.Str == "" {
		return ""
	}
	return fr.getStr(instr.A).Bytes
}

func (m *Machine) doPrint(fr *frame, instr bytecode.Instr) error {
	args := make([]string, len(instr.Args))
	for i, a := range instr.Args {
		args[i] = fr.getStr(a).Bytes
	}
	if err := m.out.Print(args, m.ofs(), m.ors(), instr.Str, m.redirectTarget(fr, instr)); err != nil {
		return errors.Wrap(err, "run", instr.Loc)
	}
	return nil
}

func (m *Machine) doPrintf(fr *frame, instr bytecode.Instr) error {
	if len(instr.Args) == 0 {
		return errors.Runtimef(errors.Builtin, instr.Loc, "printf: missing format string")
	}
	format := fr.getStr(instr.Args[0]).Bytes
	args := make([]runtime.Value, len(instr.Args)-1)
	for i, a := range instr.Args[1:] {
		args[i] = fr.value(a)
	}
	if err := m.out.Printf(format, args, m.convFmt(), instr.Str, m.redirectTarget(fr, instr)); err != nil {
		return errors.Wrap(err, "run", instr.Loc)
	}
	return nil
}
