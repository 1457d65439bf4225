package parallel

import (
	"bufio"
	"io"

	"zawk/internal/record"
	"zawk/internal/runtime"
)

// shardInput feeds one shard's [start, start+size) byte range of a
// single seekable file through the same record-splitting machinery
// internal/record.Input uses serially, and implements vm.Input: Driver.Run's
// per-shard loop reads it through the same Next/NR/FNR/SkipFile calls
// vm.Machine.Run makes on a serial Input, just bounded to a byte range
// instead of a filename list.
type shardInput struct {
	filename string
	regex    *runtime.RegexCache

	cur    *runtime.RecordReader
	curCSV *record.CSVReader

	nr, fnr int
	done    bool
}

func newShardInput(format record.Format, regex *runtime.RegexCache, filename string, section *io.SectionReader) *shardInput {
	s := &shardInput{filename: filename, regex: regex}
	br := bufio.NewReader(section)
	switch format {
	case record.FormatCSV:
		s.curCSV = record.NewCSVReader(br, ',')
	case record.FormatTSV:
		s.curCSV = record.NewCSVReader(br, '\t')
	default:
		s.cur = runtime.NewRecordReaderBuf(br)
	}
	return s
}

func (s *shardInput) Next(rs string) (string, bool, error) {
	if s.done {
		return "", false, nil
	}
	var line string
	var err error
	if s.curCSV != nil {
		line, _, err = s.curCSV.Next()
	} else {
		line, err = s.cur.Next(rs, s.regex)
	}
	if err != nil {
		if err == io.EOF {
			s.done = true
			return "", false, nil
		}
		return "", false, err
	}
	s.nr++
	s.fnr++
	return line, true, nil
}

func (s *shardInput) NR() int          { return s.nr }
func (s *shardInput) FNR() int         { return s.fnr }
func (s *shardInput) Filename() string { return s.filename }

// SkipFile ends this shard's input early, for a nextfile issued inside
// a shard; since a shard only ever covers one file there is nothing
// left to advance to, so it behaves like reaching end of input.
func (s *shardInput) SkipFile() { s.done = true }
