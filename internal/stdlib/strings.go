package stdlib

import (
	"strings"

	"zawk/internal/errors"
	"zawk/internal/output"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

const trimCutset = " \t\n\r\v\f"

func addStringFuncs(t map[string]vm.Builtin) {
	t["length"] = biLength
	t["substr"] = biSubstr
	t["index"] = biIndex
	t["match"] = biMatch
	t["tolower"] = biTolower
	t["toupper"] = biToupper
	t["trim"] = biTrim
	t["ltrim"] = biLtrim
	t["rtrim"] = biRtrim
	t["join"] = biJoin
	t["sprintf"] = biSprintf
	t["sprintf_s"] = biSprintf // sprintf_s: same grammar, kept as a distinct name for donor-style aliasing
}

func arg(args []runtime.Value, i int) runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.Uninit
}

func biLength(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Int(int64(len(m.Record().Raw(m.OFS())))), nil
	}
	return runtime.Int(int64(len(arg(args, 0).String(m.ConvFmt())))), nil
}

func biSubstr(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 2 {
		return runtime.Uninit, errors.Runtimef(errors.Builtin, errors.Location{}, "substr: requires at least 2 arguments")
	}
	s := arg(args, 0).String(m.ConvFmt())
	start := arg(args, 1).Float64()
	hasLen := len(args) >= 3
	var length float64
	if hasLen {
		length = arg(args, 2).Float64()
	}
	return runtime.Str(substr(s, start, hasLen, length)), nil
}

// substr follows POSIX awk's clamping rules: characters are indexed
// from 1, a start before 1 eats into the requested length rather than
// shifting the window, and the result never runs past len(s).
func substr(s string, start float64, hasLen bool, length float64) string {
	n := float64(len(s))
	st := roundHalfAwayFromZero(start)
	var end float64
	if hasLen {
		ln := roundHalfAwayFromZero(length)
		if ln < 0 {
			ln = 0
		}
		end = st + ln
	} else {
		end = n + 1
	}
	if st < 1 {
		st = 1
	}
	if end > n+1 {
		end = n + 1
	}
	if end <= st {
		return ""
	}
	si, ei := int(st)-1, int(end)-1
	if si < 0 {
		si = 0
	}
	if ei > len(s) {
		ei = len(s)
	}
	if si >= ei {
		return ""
	}
	return s[si:ei]
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return float64(int64(f + 0.5))
	}
	return float64(int64(f - 0.5))
}

func biIndex(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	s := arg(args, 0).String(m.ConvFmt())
	t := arg(args, 1).String(m.ConvFmt())
	return runtime.Int(int64(strings.Index(s, t) + 1)), nil
}

// biMatch implements match(s, re): returns the 1-based starting
// position of the leftmost match (0 if none) and sets the RSTART/
// RLENGTH globals the way AWK's match() always does as a side effect.
func biMatch(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	s := arg(args, 0).String(m.ConvFmt())
	pattern := arg(args, 1).String(m.ConvFmt())
	re, err := m.Regex().Compile(pattern)
	if err != nil {
		return runtime.Uninit, errors.Runtimef(errors.Regex, errors.Location{}, "%s", err)
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		m.SetGlobalNum("RSTART", 0)
		m.SetGlobalNum("RLENGTH", -1)
		return runtime.Int(0), nil
	}
	m.SetGlobalNum("RSTART", float64(loc[0]+1))
	m.SetGlobalNum("RLENGTH", float64(loc[1]-loc[0]))
	return runtime.Int(int64(loc[0] + 1)), nil
}

func biTolower(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Str(strings.ToLower(arg(args, 0).String(m.ConvFmt()))), nil
}

func biToupper(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Str(strings.ToUpper(arg(args, 0).String(m.ConvFmt()))), nil
}

func biTrim(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Str(strings.Trim(arg(args, 0).String(m.ConvFmt()), trimCutset)), nil
}

func biLtrim(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Str(strings.TrimLeft(arg(args, 0).String(m.ConvFmt()), trimCutset)), nil
}

func biRtrim(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	return runtime.Str(strings.TrimRight(arg(args, 0).String(m.ConvFmt()), trimCutset)), nil
}

// biJoin concatenates every argument past the separator with it:
// join(sep, a, b, c) -> a<sep>b<sep>c. Array contents can't reach a
// plain Builtin call (only a fixed table of builtins get an array
// out-parameter, internal/ir's arrayOutParams), so join operates on
// however many scalar values the caller lists explicitly.
func biJoin(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Str(""), nil
	}
	sep := args[0].String(m.ConvFmt())
	parts := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		parts = append(parts, a.String(m.ConvFmt()))
	}
	return runtime.Str(strings.Join(parts, sep)), nil
}

func biSprintf(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Str(""), nil
	}
	format := args[0].String(m.ConvFmt())
	s, err := output.Sprintf(format, args[1:], m.ConvFmt())
	if err != nil {
		return runtime.Uninit, errors.Wrap(err, "run", errors.Location{})
	}
	return runtime.Str(s), nil
}
