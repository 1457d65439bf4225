// Package output implements the output engine (spec §4.J): print/printf
// to stdout or a redirected file/pipe sink, and CSV/TSV quoting on
// output. The donor has no direct analog for a live text-formatting
// sink, so the dispatch shape here follows the table-driven style its
// own formatters use elsewhere (internal/reporting's format-keyed
// exporters, internal/formatter's builder-over-strings.Builder
// approach), adapted to AWK's OFS/ORS-joined print semantics.
package output

import (
	"bufio"
	"io"
	"strings"

	"zawk/internal/runtime"
)

// Format selects whether print's fields are quoted CSV/TSV-style on
// the way out. It mirrors internal/record.Format but is kept as its
// own type since the output engine has no reason to depend on the
// record package.
type Format int

const (
	FormatLine Format = iota
	FormatCSV
	FormatTSV
)

// Engine is the vm.Output implementation: one process-wide stdout sink
// plus the shared I/O registry redirects address.
type Engine struct {
	stdout *bufio.Writer
	io     *runtime.IOTable
	format Format
	delim  byte
}

func NewEngine(stdout io.Writer, format Format, io_ *runtime.IOTable) *Engine {
	delim := byte(',')
	if format == FormatTSV {
		delim = '\t'
	}
	return &Engine{stdout: bufio.NewWriter(stdout), io: io_, format: format, delim: delim}
}

// Flush flushes the stdout sink; called once at program exit (open
// redirect/pipe streams flush themselves via runtime.IOTable.CloseAll).
func (e *Engine) Flush() error { return e.stdout.Flush() }

func (e *Engine) writer(redirectOp, target string) (io.Writer, error) {
	switch redirectOp {
	case "":
		return e.stdout, nil
	case ">":
		s, err := e.io.OutputFile(target, false)
		if err != nil {
			return nil, err
		}
		return s.W, nil
	case ">>":
		s, err := e.io.OutputFile(target, true)
		if err != nil {
			return nil, err
		}
		return s.W, nil
	case "|":
		s, err := e.io.OutputPipe(target)
		if err != nil {
			return nil, err
		}
		return s.W, nil
	}
	return e.stdout, nil
}

// Print joins args with ofs, quoting each field CSV/TSV-style first
// when the engine is in CSV/TSV output mode, and terminates with ors.
func (e *Engine) Print(args []string, ofs, ors, redirectOp, target string) error {
	w, err := e.writer(redirectOp, target)
	if err != nil {
		return err
	}
	fields := args
	if e.format != FormatLine {
		fields = make([]string, len(args))
		for i, a := range args {
			fields[i] = quoteField(a, e.delim)
		}
	}
	_, err = io.WriteString(w, strings.Join(fields, ofs)+ors)
	return err
}

// Printf renders format against args using the C printf subset (spec
// §4.J: %d %i %o %x %X %u %c %s %e %f %g %% with width/precision/
// flags) and writes the result with no extra separator — printf emits
// exactly what the format string specifies, unlike print's
// OFS/ORS-wrapped field list.
func (e *Engine) Printf(format string, args []runtime.Value, convFmt, redirectOp, target string) error {
	w, err := e.writer(redirectOp, target)
	if err != nil {
		return err
	}
	out, err := sprintf(format, args, convFmt)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// quoteField applies RFC 4180 quoting (spec §4.J): a field containing
// the delimiter, a quote, or a CR/LF is wrapped in quotes with any
// embedded quote doubled.
func quoteField(s string, delim byte) string {
	if !strings.ContainsAny(s, string(delim)+"\"\r\n") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			b.WriteByte('"')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
