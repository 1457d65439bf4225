package runtime

import (
	"bufio"
	"io"
	"strings"
)

// RecordReader pulls successive records off a stream per the current
// RS value (spec §4.H). It is shared by the main input driver and by
// getline's file/command forms, so both go through the same RS
// semantics: RS=="\n" is the common line-at-a-time case, RS=="" is
// paragraph mode (blank-line separated, leading blank lines skipped),
// a single byte RS splits on that literal byte, and a multi-byte RS is
// a record separator regex (a gawk extension). A small pending buffer
// carries regex-mode read-ahead across calls, since finding a regex
// match may require peeking past the record it terminates.
type RecordReader struct {
	br      *bufio.Reader
	pending []byte
}

func NewRecordReader(r io.Reader) *RecordReader {
	return &RecordReader{br: bufio.NewReader(r)}
}

// NewRecordReaderBuf wraps an already-buffered reader, so a Stream
// opened for getline's file/command forms doesn't double-buffer.
func NewRecordReaderBuf(br *bufio.Reader) *RecordReader {
	return &RecordReader{br: br}
}

func (rr *RecordReader) Next(rs string, re *RegexCache) (string, error) {
	switch {
	case rs == "\n":
		return rr.readDelim('\n')
	case rs == "":
		return rr.readParagraph()
	case len(rs) == 1:
		return rr.readDelim(rs[0])
	default:
		return rr.readRegex(rs, re)
	}
}

func (rr *RecordReader) readDelim(delim byte) (string, error) {
	if i := indexByte(rr.pending, delim); i >= 0 {
		s := string(rr.pending[:i])
		rr.pending = rr.pending[i+1:]
		return s, nil
	}
	prefix := rr.pending
	rr.pending = nil
	s, err := rr.br.ReadString(delim)
	full := string(prefix) + s
	if err != nil {
		if full == "" {
			return "", err
		}
		return full, nil
	}
	return full[:len(full)-1], nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func (rr *RecordReader) readParagraph() (string, error) {
	var lines []string
	for {
		line, err := rr.readDelim('\n')
		if line != "" {
			lines = append(lines, line)
			break
		}
		if err != nil {
			return "", err
		}
	}
	for {
		line, err := rr.readDelim('\n')
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}
	return strings.Join(lines, "\n"), nil
}

// readRegex grows rr.pending until rs matches inside it or the stream
// ends, then splits at the match and keeps whatever follows buffered
// for the next call.
func (rr *RecordReader) readRegex(rs string, re *RegexCache) (string, error) {
	pat, err := re.Compile(rs)
	if err != nil {
		return "", err
	}
	chunk := make([]byte, 4096)
	for {
		if loc := pat.FindIndex(rr.pending); loc != nil {
			rec := string(rr.pending[:loc[0]])
			rr.pending = rr.pending[loc[1]:]
			return rec, nil
		}
		n, err := rr.br.Read(chunk)
		if n > 0 {
			rr.pending = append(rr.pending, chunk[:n]...)
		}
		if err != nil {
			if len(rr.pending) == 0 {
				return "", err
			}
			rec := string(rr.pending)
			rr.pending = nil
			return rec, nil
		}
	}
}
