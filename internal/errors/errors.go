// Package errors defines zawk's diagnostic taxonomy and rendering.
package errors

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Kind classifies a diagnostic per spec §7.
type Kind string

const (
	Parse     Kind = "parse"
	Type      Kind = "type"
	Runtime   Kind = "runtime"
	Usage     Kind = "usage"
)

// RuntimeSubkind distinguishes the RuntimeError subkinds named in §7.
type RuntimeSubkind string

const (
	Arithmetic RuntimeSubkind = "arithmetic"
	Regex      RuntimeSubkind = "regex"
	IO         RuntimeSubkind = "io"
	Builtin    RuntimeSubkind = "builtin"
)

// Location is a source position: file, 1-based line and column.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	if l.File == "" {
		return "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Diagnostic is a fatal compile or runtime error. Phase names the stage
// that raised it ("parse", "infer", "run", "usage", or the phase a Wrap
// caller names, such as "parallel") for the "zawk: <phase>: ..."
// format required by spec §6.
type Diagnostic struct {
	Kind     Kind
	Subkind  RuntimeSubkind
	Phase    string
	Loc      Location
	Message  string
	cause    error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("zawk: %s: %s: %s", d.Phase, d.Loc, d.Message)
}

func (d *Diagnostic) Unwrap() error { return d.cause }

// ExitCode maps a Kind to the process exit code from spec §6.
func (d *Diagnostic) ExitCode() int {
	switch d.Kind {
	case Parse, Type:
		return 2
	case Usage:
		return 3
	default:
		return 1
	}
}

func Parsef(loc Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Parse, Phase: "parse", Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func Typef(loc Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Type, Phase: "infer", Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func Runtimef(sub RuntimeSubkind, loc Location, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Runtime, Subkind: sub, Phase: "run", Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func Usagef(format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Kind: Usage, Phase: "usage", Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches phase/location context to a lower-level error using
// github.com/pkg/errors, the way the donor wraps driver/IO failures
// before they reach a diagnostic sink.
func Wrap(err error, phase string, loc Location) *Diagnostic {
	if err == nil {
		return nil
	}
	return &Diagnostic{
		Kind:    Runtime,
		Subkind: IO,
		Phase:   phase,
		Loc:     loc,
		Message: err.Error(),
		cause:   errors.Wrap(err, phase),
	}
}

// Cause unwraps to the root cause, mirroring errors.Cause.
func Cause(err error) error { return errors.Cause(err) }

var debugEnabled bool

// SetDebug turns Debugf output on or off. It is off by default; no
// flag or environment variable in cmd/zawk calls it.
func SetDebug(on bool) { debugEnabled = on }

func Debugf(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, "zawk: debug: "+format+"\n", args...)
	}
}

func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "zawk: warning: "+format+"\n", args...)
}
