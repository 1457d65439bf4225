// Package parallel implements --parallel N (spec §4.I, §5): it shards
// a single input file on record boundaries, runs BEGIN once in a
// prelude Machine, fans the shards out to independent Machines that
// share no state except the globals named in an @reduce clause, merges
// those globals by their declared monoid, concatenates shard stdout in
// input-chunk order, and finally runs END once against the merged
// result. Everything here builds on internal/vm.Machine's
// RunBegin/RunRecord/RunEnd, as its serial Run() loop does; a shard is simply a
// Machine whose Input is bounded to a byte range instead of a
// filename list.
package parallel

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"zawk/internal/bytecode"
	"zawk/internal/errors"
	"zawk/internal/output"
	"zawk/internal/record"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

// predeclaredGlobals are the AWK special variables every program is
// free to read or write without tripping the shared-state check: each
// shard gets its own NR/FNR/FILENAME (seeded and reported locally) and
// RSTART/RLENGTH/NF are scratch registers private to whichever record
// is currently being processed, never aggregated across shards.
var predeclaredGlobals = map[string]bool{
	"NR": true, "FNR": true, "NF": true, "FILENAME": true,
	"FS": true, "OFS": true, "ORS": true, "RS": true, "SUBSEP": true,
	"CONVFMT": true, "OFMT": true, "RSTART": true, "RLENGTH": true,
	"ENVIRON": true, "ARGV": true, "ARGC": true,
}

// Driver runs one AWK program across N shards of a single file.
type Driver struct {
	Prog          *bytecode.Program
	Builtins      map[string]vm.Builtin
	ArrayBuiltins map[string]vm.ArrayOutBuiltin
	Format        record.Format
	OutFormat     output.Format
	Stdout        io.Writer
	Shards        int
	Reduces       []ReduceSpec

	// InitGlobals, if set, runs once against the prelude Machine right
	// after construction and before BEGIN executes, so cmd/zawk can
	// seed FS/-v assignments/ENVIRON/ARGV the same way it would for a
	// serial run, without internal/parallel needing to know about the
	// CLI's flag surface.
	InitGlobals func(m *vm.Machine)
}

// checkSharedState rejects a program that writes to a global neither
// predeclared nor named by an @reduce clause from any Main/Patterns/
// Funcs body, since shard Machines share no memory once forked (spec
// §5: "non-reduction shared state is disallowed"). It does not inspect
// Begin/End, since those run once, outside the fan-out, against a
// single Machine.
func (d *Driver) checkSharedState() error {
	allowed := map[string]bool{}
	for k, v := range predeclaredGlobals {
		allowed[k] = v
	}
	for _, r := range d.Reduces {
		allowed[r.Name] = true
	}
	check := func(fns []*bytecode.Func) error {
		for _, fn := range fns {
			for _, instr := range fn.Code {
				if instr.Op != bytecode.OpStoreGlobal {
					continue
				}
				if instr.Str == "" || allowed[instr.Str] {
					continue
				}
				return errors.Usagef(
					"--parallel: %q is written outside BEGIN/END but has no @reduce clause; "+
						"shards share no state except reduced globals", instr.Str)
			}
		}
		return nil
	}
	if err := check(d.Prog.Patterns); err != nil {
		return err
	}
	if err := check(d.Prog.Main); err != nil {
		return err
	}
	return check(d.Prog.Funcs)
}

// Run executes the whole parallel pipeline against a single file path.
// Multi-file or stdin input isn't shardable this way (mmap needs one
// seekable *os.File), so cmd/zawk falls back to the serial
// vm.Machine.Run() path for those instead of calling Driver.Run.
func (d *Driver) Run(path string) (int, error) {
	if err := d.checkSharedState(); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "parallel", errors.Location{})
	}
	defer f.Close()

	data, err := mmapFile(f)
	if err != nil {
		return 0, errors.Wrap(err, "parallel", errors.Location{})
	}
	defer munmapFile(data)

	prelude := d.newMachine(record.NewInput(d.Format, []string{path}, runtime.NewRegexCache()))
	if d.InitGlobals != nil {
		d.InitGlobals(prelude)
	}
	if err := prelude.RunBegin(); err != nil {
		return 0, err
	}
	prelude.FlushOutput()
	if prelude.Exiting() {
		if err := prelude.RunEnd(); err != nil {
			return 0, err
		}
		prelude.FlushOutput()
		return prelude.ExitCode(), nil
	}

	shardCount := d.Shards
	if shardCount < 1 {
		shardCount = 1
	}
	// shardBounds cuts line-mode input at '\n', so any other RS (as -v
	// or BEGIN left it) runs the whole file as a single shard.
	csvInput := d.Format == record.FormatCSV || d.Format == record.FormatTSV
	if !csvInput && prelude.GlobalStr("RS", "\n") != "\n" {
		shardCount = 1
	}
	size := int64(len(data))
	bounds := d.shardBounds(data, size, shardCount)

	shards := make([]*vm.Machine, len(bounds)-1)
	buffers := make([]*bytes.Buffer, len(bounds)-1)

	var g errgroup.Group
	for i := 0; i < len(bounds)-1; i++ {
		i := i
		start, end := bounds[i], bounds[i+1]
		buf := &bytes.Buffer{}
		buffers[i] = buf
		g.Go(func() error {
			section := io.NewSectionReader(f, start, end-start)
			in := newShardInput(d.Format, runtime.NewRegexCache(), path, section)
			m := d.newMachineTo(buf, in)
			d.seedFromPrelude(m, prelude, true)
			shards[i] = m
			for !m.Exiting() {
				rs := m.GlobalStr("RS", "\n")
				line, ok, rerr := in.Next(rs)
				if rerr != nil {
					return rerr
				}
				if !ok {
					break
				}
				m.Record().SetParagraphMode(rs == "")
				m.Record().SetRaw(line, m.FS())
				m.SetGlobalNum("NR", float64(in.NR()))
				m.SetGlobalNum("FNR", float64(in.FNR()))
				m.SetGlobalStr("FILENAME", path)
				nextfile, rerr := m.RunRecord()
				if rerr != nil {
					return rerr
				}
				if nextfile {
					in.SkipFile()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	final := d.newMachine(nil)
	d.seedFromPrelude(final, prelude, false)
	for _, spec := range d.Reduces {
		mergeGlobal(final, shards, spec)
	}
	for _, buf := range buffers {
		d.Stdout.Write(buf.Bytes())
	}
	if err := final.RunEnd(); err != nil {
		return 0, err
	}
	final.FlushOutput()
	return final.ExitCode(), nil
}

// shardBounds turns n-1 interior split points into [start,end)
// fenceposts covering the whole mapped file. Line-mode input is cut at
// '\n'; Run passes n = 1 whenever RS is anything else, so no interior
// split is made for another RS.
func (d *Driver) shardBounds(data []byte, size int64, n int) []int64 {
	csv := d.Format == record.FormatCSV || d.Format == record.FormatTSV
	pts := splitPoints(data, n, csv, '\n')
	bounds := make([]int64, 0, len(pts)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, pts...)
	bounds = append(bounds, size)
	return bounds
}

func (d *Driver) newMachine(in vm.Input) *vm.Machine {
	eng := output.NewEngine(d.Stdout, d.OutFormat, runtime.NewIOTable())
	rec := record.NewRecord(d.Format, runtime.NewRegexCache())
	return vm.NewMachine(d.Prog, eng, rec, in, d.Builtins, d.ArrayBuiltins)
}

func (d *Driver) newMachineTo(w io.Writer, in vm.Input) *vm.Machine {
	eng := output.NewEngine(w, d.OutFormat, runtime.NewIOTable())
	rec := record.NewRecord(d.Format, runtime.NewRegexCache())
	return vm.NewMachine(d.Prog, eng, rec, in, d.Builtins, d.ArrayBuiltins)
}

// seedFromPrelude copies BEGIN's effects on every declared global from
// prelude into m, the snapshot step spec §4.I and OQ3 require before a
// shard or the final merge Machine starts running: BEGIN itself only
// ever executes once, in prelude. When skipReduced is set (seeding a
// shard, not the final merge Machine), a global named by an @reduce
// clause is left at m's own fresh zero value instead of BEGIN's: each
// shard folds its records into the monoid's identity element (0 for
// sum, "" for concat, the zero value serial AWK already treats an
// uninitialized accumulator as for min/max), and the real BEGIN value
// is applied exactly once, during the final cross-shard merge.
func (d *Driver) seedFromPrelude(m, prelude *vm.Machine, skipReduced bool) {
	reduced := map[string]bool{}
	if skipReduced {
		for _, r := range d.Reduces {
			reduced[r.Name] = true
		}
	}
	for _, name := range prelude.GlobalNames() {
		if reduced[name] {
			continue
		}
		if im, sm, ok := prelude.GlobalArray(name); ok {
			dstInt, dstStr, _ := m.GlobalArray(name)
			if im != nil && dstInt != nil {
				for _, k := range im.Keys() {
					v, _ := im.Get(k)
					dstInt.Set(k, v)
				}
			}
			if sm != nil && dstStr != nil {
				for _, k := range sm.Keys() {
					v, _ := sm.Get(k)
					dstStr.Set(k, v)
				}
			}
			continue
		}
		if v, ok := prelude.GlobalScalar(name); ok {
			m.SetGlobalScalar(name, v)
		}
	}
}
