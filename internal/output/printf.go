package output

import (
	"fmt"
	"strings"

	"zawk/internal/errors"
	"zawk/internal/runtime"
)

// Sprintf exposes the printf formatter to internal/stdlib's sprintf()/
// sprintf_s() builtins, which need the identical format grammar Printf
// uses but return the rendered string as a value instead of writing it.
func Sprintf(format string, args []runtime.Value, convFmt string) (string, error) {
	return sprintf(format, args, convFmt)
}

// sprintf implements the printf subset spec §4.J names: %d %i %o %x %X
// %u %c %s %e %f %g %% with width/precision/flags, by re-deriving each
// directive's own small Go fmt verb and the correctly-typed Go argument
// to feed it — Go's verb set overlaps C's closely enough for d/o/x/X/
// e/f/g/s, but %c and %u have no direct Go equivalent (Go's %c rejects
// a string argument; Go has no %u at all), so those two are resolved
// by hand before ever touching fmt.
func sprintf(format string, args []runtime.Value, convFmt string) (string, error) {
	var out strings.Builder
	argIdx := 0
	nextArg := func() runtime.Value {
		if argIdx < len(args) {
			v := args[argIdx]
			argIdx++
			return v
		}
		argIdx++
		return runtime.Uninit
	}

	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			out.WriteByte('%')
			i += 2
			continue
		}
		spec, width, consumed := scanDirective(format[i:])
		if consumed == 0 {
			// lone trailing '%' or an unrecognized verb: emit literally.
			out.WriteByte('%')
			i++
			continue
		}
		i += consumed

		verb := spec[len(spec)-1]
		switch verb {
		case 'd', 'i':
			out.WriteString(fmt.Sprintf(spec[:len(spec)-1]+"d", nextArg().Int64()))
		case 'o', 'x', 'X':
			out.WriteString(fmt.Sprintf(spec, nextArg().Int64()))
		case 'u':
			out.WriteString(fmt.Sprintf(spec[:len(spec)-1]+"d", uint64(nextArg().Int64())))
		case 'e', 'f', 'g':
			out.WriteString(fmt.Sprintf(spec, nextArg().Float64()))
		case 's':
			out.WriteString(fmt.Sprintf(spec, nextArg().String(convFmt)))
		case 'c':
			out.WriteString(fmt.Sprintf(spec, printfRune(nextArg(), convFmt)))
		default:
			return "", errors.Runtimef(errors.Builtin, errors.Location{}, "printf: unsupported verb %%%c", verb)
		}
		_ = width
	}
	return out.String(), nil
}

// printfRune resolves %c's argument per the Open Question resolution:
// an integer operand is the Unicode code point itself, a string
// operand contributes its first rune (both already distinguished by
// the bank the lowerer kept for printf's value arguments).
func printfRune(v runtime.Value, convFmt string) rune {
	switch v.Kind {
	case runtime.KInt, runtime.KFloat:
		return rune(v.Int64())
	default:
		s := v.String(convFmt)
		for _, r := range s {
			return r
		}
		return 0
	}
}

// scanDirective parses one %-directive starting at s[0]=='%', returning
// the Go-fmt-compatible verb spec ("%-08.2f"), its width if a literal
// digit width was given (0 otherwise, informational only), and how
// many bytes of s the directive consumed. flags/width/precision syntax
// is a direct passthrough to Go's fmt since both follow C's printf
// grammar for these.
func scanDirective(s string) (spec string, width, consumed int) {
	i := 1
	for i < len(s) && strings.ContainsRune("-+0 #", rune(s[i])) {
		i++
	}
	wstart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > wstart {
		fmt.Sscanf(s[wstart:i], "%d", &width)
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i >= len(s) || !strings.ContainsRune("diouxXcsefg", rune(s[i])) {
		return "", 0, 0
	}
	i++
	return s[:i], width, i
}
