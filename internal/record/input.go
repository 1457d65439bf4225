package record

import (
	"bufio"
	"io"
	"os"

	"zawk/internal/runtime"
)

// Input drives the main record stream across a list of filenames (an
// empty name, or "-", means stdin), tracking NR/FNR/FILENAME the way
// POSIX awk does when it cycles through ARGV. It implements vm.Input;
// cmd/zawk constructs one from the post-flag-parsing argument list and
// wires it into vm.NewMachine.
type Input struct {
	format Format
	regex  *runtime.RegexCache
	files  []string

	idx      int
	filename string
	nr       int
	fnr      int

	cur       *runtime.RecordReader
	curCSV    *CSVReader
	curCloser io.Closer
}

// NewInput builds an Input over files in ARGV order. A nil or empty
// files list falls back to stdin alone, matching awk's "no file
// operands" behavior.
func NewInput(format Format, files []string, regex *runtime.RegexCache) *Input {
	if len(files) == 0 {
		files = []string{""}
	}
	return &Input{format: format, regex: regex, files: files}
}

// Next advances to the next record across the whole file list,
// transparently moving to the next file (and back to Next) when one
// source is exhausted (POSIX's "FNR resets per file, NR never does").
func (in *Input) Next(rs string) (string, bool, error) {
	for {
		if in.cur == nil && in.curCSV == nil {
			if !in.openNext() {
				return "", false, nil
			}
		}
		var line string
		var err error
		if in.format == FormatCSV || in.format == FormatTSV {
			line, _, err = in.curCSV.Next()
		} else {
			line, err = in.cur.Next(rs, in.regex)
		}
		if err != nil {
			if err == io.EOF {
				in.closeCurrent()
				continue
			}
			return "", false, err
		}
		in.nr++
		in.fnr++
		return line, true, nil
	}
}

func (in *Input) openNext() bool {
	if in.idx >= len(in.files) {
		return false
	}
	name := in.files[in.idx]
	in.idx++
	in.fnr = 0

	if name == "" || name == "-" {
		in.filename = ""
		in.setReader(bufio.NewReader(os.Stdin), nil)
		return true
	}
	f, err := os.Open(name)
	if err != nil {
		// Matches awk's behavior of skipping an unreadable file operand
		// and moving on rather than aborting the whole run.
		return in.openNext()
	}
	in.filename = name
	in.setReader(bufio.NewReader(f), f)
	return true
}

func (in *Input) setReader(br *bufio.Reader, closer io.Closer) {
	in.curCloser = closer
	switch in.format {
	case FormatCSV:
		in.curCSV = NewCSVReader(br, ',')
		in.cur = nil
	case FormatTSV:
		in.curCSV = NewCSVReader(br, '\t')
		in.cur = nil
	default:
		in.cur = runtime.NewRecordReaderBuf(br)
		in.curCSV = nil
	}
}

func (in *Input) closeCurrent() {
	if in.curCloser != nil {
		in.curCloser.Close()
	}
	in.cur = nil
	in.curCSV = nil
}

// SkipFile closes whatever source is currently open so the next Next()
// call advances to the following ARGV entry, implementing nextfile.
func (in *Input) SkipFile() { in.closeCurrent() }

func (in *Input) NR() int          { return in.nr }
func (in *Input) FNR() int         { return in.fnr }
func (in *Input) Filename() string { return in.filename }
