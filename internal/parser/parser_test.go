package parser

import (
	"fmt"
	"testing"

	"zawk/internal/lexer"
)

func parseString(input string) (prog *Program, errs []error) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				errs = append(errs, err)
			} else {
				errs = append(errs, fmt.Errorf("parser panic: %v", r))
			}
			prog = nil
		}
	}()

	scanner := lexer.NewScanner(input)
	tokens := scanner.ScanTokens()
	p := NewParser(tokens, "<test>")
	prog = p.Parse()
	errs = p.Errors
	return
}

func assertParseSuccess(t *testing.T, input, description string) *Program {
	prog, errs := parseString(input)
	if len(errs) > 0 {
		t.Fatalf("%s: parsing failed with errors: %v", description, errs)
	}
	if prog == nil {
		t.Fatalf("%s: parsing returned nil program", description)
	}
	return prog
}

func TestParseSimpleRule(t *testing.T) {
	prog := assertParseSuccess(t, `{ print $1 }`, "simple print rule")
	if len(prog.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(prog.Items))
	}
	rule, ok := prog.Items[0].(*Rule)
	if !ok {
		t.Fatalf("expected *Rule, got %T", prog.Items[0])
	}
	if rule.Pattern != nil {
		t.Errorf("expected nil pattern for always-match rule")
	}
	if len(rule.Body) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(rule.Body))
	}
}

func TestParseBeginEnd(t *testing.T) {
	prog := assertParseSuccess(t, "BEGIN { x = 1 }\nEND { print x }", "begin/end")
	if len(prog.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(prog.Items))
	}
	if _, ok := prog.Items[0].(*BeginBlock); !ok {
		t.Errorf("expected first item to be BEGIN block, got %T", prog.Items[0])
	}
	if _, ok := prog.Items[1].(*EndBlock); !ok {
		t.Errorf("expected second item to be END block, got %T", prog.Items[1])
	}
}

func TestParsePatternAction(t *testing.T) {
	prog := assertParseSuccess(t, `$1 == "x" { print }`, "pattern/action")
	rule := prog.Items[0].(*Rule)
	bin, ok := rule.Pattern.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected *BinaryExpr pattern, got %T", rule.Pattern)
	}
	if bin.Op != "==" {
		t.Errorf("expected ==, got %s", bin.Op)
	}
}

func TestParseFunctionDef(t *testing.T) {
	prog := assertParseSuccess(t, "function add(a, b) { return a + b }", "function def")
	fn, ok := prog.Items[0].(*FuncDef)
	if !ok {
		t.Fatalf("expected *FuncDef, got %T", prog.Items[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("unexpected function signature: %+v", fn)
	}
}

func TestParseArrayIndexAndFor(t *testing.T) {
	prog := assertParseSuccess(t, `BEGIN { a[1] = 2; for (k in a) print k, a[k] }`, "array + for-in")
	begin := prog.Items[0].(*BeginBlock)
	if len(begin.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(begin.Body))
	}
	if _, ok := begin.Body[1].(*ForInStmt); !ok {
		t.Errorf("expected ForInStmt, got %T", begin.Body[1])
	}
}

func TestParseConcatenation(t *testing.T) {
	prog := assertParseSuccess(t, `BEGIN { x = "a" "b" NR }`, "concatenation")
	begin := prog.Items[0].(*BeginBlock)
	assign := begin.Body[0].(*ExprStmt).X.(*AssignExpr)
	if _, ok := assign.Value.(*ConcatExpr); !ok {
		t.Errorf("expected ConcatExpr value, got %T", assign.Value)
	}
}

func TestParsePrintRedirect(t *testing.T) {
	prog := assertParseSuccess(t, `{ print $1 > "out.txt" }`, "print redirect")
	rule := prog.Items[0].(*Rule)
	ps := rule.Body[0].(*PrintStmt)
	if ps.Dest == nil || ps.Dest.Mode != ">" {
		t.Fatalf("expected redirect to >, got %+v", ps.Dest)
	}
}

func TestParseRegexPattern(t *testing.T) {
	prog := assertParseSuccess(t, `/^foo/ { print }`, "regex pattern")
	rule := prog.Items[0].(*Rule)
	if _, ok := rule.Pattern.(*RegexLit); !ok {
		t.Fatalf("expected RegexLit pattern, got %T", rule.Pattern)
	}
}

func TestParseGetlineForms(t *testing.T) {
	prog := assertParseSuccess(t, `BEGIN { getline line < "f"; "cmd" | getline x }`, "getline forms")
	begin := prog.Items[0].(*BeginBlock)
	if len(begin.Body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(begin.Body))
	}
	g1 := begin.Body[0].(*ExprStmt).X.(*GetlineExpr)
	if g1.Mode != GetlineFile {
		t.Errorf("expected GetlineFile, got %v", g1.Mode)
	}
	g2 := begin.Body[1].(*ExprStmt).X.(*GetlineExpr)
	if g2.Mode != GetlineCommand {
		t.Errorf("expected GetlineCommand, got %v", g2.Mode)
	}
}

func TestParseErrorOnBadAssignTarget(t *testing.T) {
	_, errs := parseString(`BEGIN { 1 = 2 }`)
	if len(errs) == 0 {
		t.Fatalf("expected parse error for invalid assignment target")
	}
}
