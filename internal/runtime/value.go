// Package runtime holds the scalar and array value representations the
// register VM operates on: a plain tagged union rather than NaN-boxing
// (the donor's vmregister.Value packs everything into 64 bits via
// pointer tagging; zawk's register-file-per-type bytecode already gives
// free type tagging — the register file a value lives in is its tag —
// so there is nothing left for NaN-boxing to buy here; see DESIGN.md).
package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a scalar Value. It mirrors typeinfer.Type's Int/Float/Str
// but lives in runtime so the VM package doesn't import the compiler.
type Kind uint8

const (
	KInt Kind = iota
	KFloat
	KStr
	KUninit // the AWK "uninitialized" value: "" and 0 at once
)

// Value is a scalar. Str values carry a copy-on-write *StrBuf plus a
// lazily-computed cached numeric interpretation (spec §3's "every
// string value has a deferred numeric interpretation" rule), so that a
// field read and reread as a number doesn't re-parse on every use.
type Value struct {
	Kind Kind
	Num  float64
	Str  *StrBuf
}

var Uninit = Value{Kind: KUninit}

func Int(i int64) Value   { return Value{Kind: KInt, Num: float64(i)} }
func Float(f float64) Value { return Value{Kind: KFloat, Num: f} }

func Str(s string) Value {
	return Value{Kind: KStr, Str: NewStrBuf(s)}
}

// StrNum is a "numeric string" — the result of field splitting and
// similar input-derived strings, which compare numerically against
// another numeric string/number per POSIX awk (§3). zawk folds that
// distinction into the same KStr representation and instead looks at
// whether the cached numeric parse succeeded; NumLooksNumeric reports
// that.
func (v Value) NumLooksNumeric() bool {
	if v.Kind != KStr {
		return true
	}
	_, ok := v.Str.Number()
	return ok
}

func (v Value) IsUninit() bool { return v.Kind == KUninit }

// Float64 coerces to a number per §3's string->number rules: a leading
// numeric prefix is parsed, trailing garbage ignored, non-numeric
// strings yield 0.
func (v Value) Float64() float64 {
	switch v.Kind {
	case KInt, KFloat:
		return v.Num
	case KStr:
		n, _ := v.Str.Number()
		return n
	default:
		return 0
	}
}

func (v Value) Int64() int64 { return int64(v.Float64()) }

// String coerces to a string per §3's number->string rules: integral
// floats print without a decimal point, others use OFMT-style %.6g.
func (v Value) String(convFmt string) string {
	switch v.Kind {
	case KStr:
		return v.Str.Bytes
	case KInt:
		return strconv.FormatInt(int64(v.Num), 10)
	case KFloat:
		if v.Num == float64(int64(v.Num)) && !isSpecial(v.Num) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		if convFmt == "" {
			convFmt = "%.6g"
		}
		return fmt.Sprintf(convFmt, v.Num)
	default:
		return ""
	}
}

func isSpecial(f float64) bool {
	return f != f || f > 1e18 || f < -1e18
}

// Bool implements AWK truthiness: numbers are false only at zero,
// strings are false only when empty (a numeric string follows the
// numeric rule instead, per §3).
func (v Value) Bool() bool {
	switch v.Kind {
	case KInt, KFloat:
		return v.Num != 0
	case KStr:
		if n, ok := v.Str.Number(); ok && looksFullyNumeric(v.Str.Bytes) {
			return n != 0
		}
		return v.Str.Bytes != ""
	default:
		return false
	}
}

func looksFullyNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// Retain/Release implement the COW string refcount discipline (I3):
// a Value holding a *StrBuf must Retain it when copied into long-lived
// storage (a variable slot, an array element) and Release it when that
// slot is overwritten or the Value is otherwise discarded.
func (v Value) Retain() Value {
	if v.Kind == KStr && v.Str != nil {
		v.Str.retain()
	}
	return v
}

func (v Value) Release() {
	if v.Kind == KStr && v.Str != nil {
		v.Str.release()
	}
}
