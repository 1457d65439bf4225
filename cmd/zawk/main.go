// cmd/zawk/main.go is the entrypoint: it parses the flag surface spec
// §6 defines, wires the lexer -> parser -> ir -> typeinfer -> compiler
// pipeline, then hands the compiled program to either a single serial
// internal/vm.Machine or, under --parallel, internal/parallel.Driver.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"zawk/internal/bytecode"
	"zawk/internal/compiler"
	"zawk/internal/database"
	"zawk/internal/errors"
	"zawk/internal/ir"
	"zawk/internal/lexer"
	"zawk/internal/network"
	"zawk/internal/output"
	"zawk/internal/parallel"
	"zawk/internal/parser"
	"zawk/internal/record"
	"zawk/internal/runtime"
	"zawk/internal/stdlib"
	"zawk/internal/typeinfer"
	"zawk/internal/vm"
)

const version = "1.0.0"

// config holds everything the flag loop collects before the pipeline
// runs, following the donor main's pattern of gathering arguments into
// a plain struct rather than a flag-library Config type.
type config struct {
	progText     string
	progFiles    []string
	fieldSep     string
	assigns      []string // "name=value" from -v
	format       string   // "", "csv", "tsv"
	parallel     int
	reduceSpecs  []string // "name:op" from --reduce
	dumpBytecode bool
	dumpCFG      bool
	files        []string
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "zawk: usage: "+err.Error())
		os.Exit(3)
	}

	source, err := loadSource(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "zawk: "+err.Error())
		os.Exit(3)
	}

	prog, diag := compileProgram(source, cfg)
	if diag != nil {
		fmt.Fprintln(os.Stderr, diag.Error())
		os.Exit(diag.ExitCode())
	}

	if cfg.dumpBytecode {
		pretty.Println(prog)
	}
	if cfg.dumpCFG {
		dumpCFG(prog)
	}

	code, err := run(prog, cfg)
	if err != nil {
		if d, ok := err.(*errors.Diagnostic); ok {
			fmt.Fprintln(os.Stderr, d.Error())
			os.Exit(d.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "zawk: "+err.Error())
		os.Exit(1)
	}
	os.Exit(code)
}

func parseArgs(args []string) (*config, error) {
	cfg := &config{fieldSep: " "}
	i := 0
	for ; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--help" || a == "-h":
			showUsage()
			os.Exit(0)
		case a == "--version":
			fmt.Println("zawk " + version)
			os.Exit(0)
		case a == "-F":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-F requires an argument")
			}
			cfg.fieldSep = args[i]
		case strings.HasPrefix(a, "-F"):
			cfg.fieldSep = a[2:]
		case a == "-v":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-v requires an argument")
			}
			cfg.assigns = append(cfg.assigns, args[i])
		case a == "-f":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-f requires an argument")
			}
			cfg.progFiles = append(cfg.progFiles, args[i])
		case a == "--format":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--format requires an argument")
			}
			cfg.format = args[i]
		case strings.HasPrefix(a, "--format="):
			cfg.format = strings.TrimPrefix(a, "--format=")
		case a == "--parallel":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--parallel requires an argument")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("--parallel: %s is not a number", args[i])
			}
			cfg.parallel = n
		case a == "--reduce":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--reduce requires an argument")
			}
			cfg.reduceSpecs = append(cfg.reduceSpecs, args[i])
		case a == "--dump-bytecode":
			cfg.dumpBytecode = true
		case a == "--dump-cfg":
			cfg.dumpCFG = true
		case a == "--":
			i++
			cfg.files = append(cfg.files, args[i:]...)
			i = len(args)
		default:
			if len(cfg.progFiles) == 0 && cfg.progText == "" {
				cfg.progText = a
			} else {
				cfg.files = append(cfg.files, a)
			}
		}
	}
	if cfg.progText == "" && len(cfg.progFiles) == 0 {
		return nil, fmt.Errorf("no program text or -f file given")
	}
	if len(cfg.files) == 0 && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(os.Stderr, "zawk: reading from standard input...")
	}
	return cfg, nil
}

func showUsage() {
	fmt.Println(`usage: zawk [-F fs] [-v var=value] [-f progfile | 'prog'] [--format csv|tsv]
             [--parallel N [--reduce name:op]...] [--dump-bytecode] [--dump-cfg]
             [file ...]`)
}

func loadSource(cfg *config) (string, error) {
	if len(cfg.progFiles) == 0 {
		return cfg.progText, nil
	}
	var sb strings.Builder
	for _, f := range cfg.progFiles {
		b, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", f, err)
		}
		sb.Write(b)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// compileProgram runs the whole lexer->parser->ir->typeinfer->compiler
// pipeline, mapping the first error from any stage to a *Diagnostic
// with that stage's Phase name (spec §6/§7).
func compileProgram(source string, cfg *config) (*bytecode.Program, *errors.Diagnostic) {
	tokens := lexer.NewScanner(source).ScanTokens()

	p := parser.NewParser(tokens, "<program>")
	astProg := p.Parse()
	if len(p.Errors) > 0 {
		return nil, errors.Parsef(errors.Location{}, "%s", p.Errors[0])
	}

	irProg, arrayUses := ir.Build(astProg)

	typed, err := typeinfer.Infer(irProg, arrayUses)
	if err != nil {
		return nil, errors.Typef(errors.Location{}, "%s", err)
	}

	prog := compiler.Lower(irProg, typed)
	return prog, nil
}

func run(prog *bytecode.Program, cfg *config) (int, error) {
	outFormat := parseOutFormat(cfg.format)
	recFormat := parseRecFormat(cfg.format)

	db := database.NewManager()
	defer db.CloseAll()
	net := network.NewManager()
	defer net.CloseAll()
	svc := &stdlib.Services{DB: db, Net: net}
	builtins := stdlib.Table(svc)
	arrayBuiltins := stdlib.ArrayTable(svc)

	if cfg.parallel > 1 && len(cfg.files) == 1 {
		reduces, err := parseReduceSpecs(cfg.reduceSpecs)
		if err != nil {
			return 0, errors.Usagef("%s", err)
		}
		driver := &parallel.Driver{
			Prog:          prog,
			Builtins:      builtins,
			ArrayBuiltins: arrayBuiltins,
			Format:        recFormat,
			OutFormat:     outFormat,
			Stdout:        os.Stdout,
			Shards:        cfg.parallel,
			Reduces:       reduces,
			InitGlobals: func(m *vm.Machine) {
				m.SetGlobalStr("FS", cfg.fieldSep)
				seedEnviron(m)
				seedArgv(m, cfg.files)
				_ = applyAssigns(m, cfg.assigns)
			},
		}
		return driver.Run(cfg.files[0])
	}

	regex := runtime.NewRegexCache()
	in := record.NewInput(recFormat, cfg.files, regex)
	rec := record.NewRecord(recFormat, regex)
	eng := output.NewEngine(os.Stdout, outFormat, runtime.NewIOTable())
	m := vm.NewMachine(prog, eng, rec, in, builtins, arrayBuiltins)

	m.SetGlobalStr("FS", cfg.fieldSep)
	seedEnviron(m)
	seedArgv(m, cfg.files)
	if err := applyAssigns(m, cfg.assigns); err != nil {
		return 0, errors.Usagef("%s", err)
	}

	code, err := m.Run()
	eng.Flush()
	return code, err
}

func parseOutFormat(format string) output.Format {
	switch format {
	case "csv":
		return output.FormatCSV
	case "tsv":
		return output.FormatTSV
	default:
		return output.FormatLine
	}
}

func parseRecFormat(format string) record.Format {
	switch format {
	case "csv":
		return record.FormatCSV
	case "tsv":
		return record.FormatTSV
	default:
		return record.FormatLine
	}
}

func parseReduceSpecs(raw []string) ([]parallel.ReduceSpec, error) {
	specs := make([]parallel.ReduceSpec, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("--reduce %q: expected name:op", r)
		}
		op, ok := parallel.ParseReduceOp(parts[1])
		if !ok {
			return nil, fmt.Errorf("--reduce %q: unknown op %q", r, parts[1])
		}
		specs = append(specs, parallel.ReduceSpec{Name: parts[0], Op: op})
	}
	return specs, nil
}

func seedEnviron(m *vm.Machine) {
	_, strMap, ok := m.GlobalArray("ENVIRON")
	if !ok || strMap == nil {
		return
	}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			strMap.Set(parts[0], runtime.Str(parts[1]))
		}
	}
}

func seedArgv(m *vm.Machine, files []string) {
	intMap, _, ok := m.GlobalArray("ARGV")
	if ok && intMap != nil {
		intMap.Set(0, runtime.Str("zawk"))
		for i, f := range files {
			intMap.Set(int64(i+1), runtime.Str(f))
		}
	}
	m.SetGlobalNum("ARGC", float64(len(files)+1))
}

func applyAssigns(m *vm.Machine, assigns []string) error {
	for _, a := range assigns {
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("-v %q: expected name=value", a)
		}
		m.SetGlobalStr(parts[0], parts[1])
	}
	return nil
}

// dumpCFG groups each Func's instructions into basic blocks split at
// jump targets and jump/branch instructions, and pretty-prints the
// blocks. There's no separate CFG type in internal/bytecode (a Func's
// Code is already a flat, address-addressed slice), so this is the
// smallest structure that makes block boundaries visible without
// inventing a whole graph type cmd/zawk would be the only caller of.
type cfgBlock struct {
	Func  string
	Start int
	End   int
	Code  []bytecode.Instr
}

func dumpCFG(prog *bytecode.Program) {
	all := append(append(append(append([]*bytecode.Func{}, prog.Begin...), prog.Patterns...), prog.Main...), prog.End...)
	all = append(all, prog.Funcs...)
	for _, fn := range all {
		if fn == nil {
			continue
		}
		leaders := map[int]bool{0: true}
		for pc, instr := range fn.Code {
			switch instr.Op {
			case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpIterNext:
				leaders[instr.Target] = true
				leaders[pc+1] = true
			}
		}
		starts := make([]int, 0, len(leaders))
		for pc := range leaders {
			if pc < len(fn.Code) {
				starts = append(starts, pc)
			}
		}
		sortInts(starts)
		for i, start := range starts {
			end := len(fn.Code)
			if i+1 < len(starts) {
				end = starts[i+1]
			}
			pretty.Println(cfgBlock{Func: fn.Name, Start: start, End: end, Code: fn.Code[start:end]})
		}
	}
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
