package ir

import (
	"fmt"

	"zawk/internal/errors"
	"zawk/internal/parser"
)

// Build walks a parsed AWK program into the untyped CFG described in
// ir.go. It never rejects a program for type reasons — that's §4.C's
// job — but it does record which names are used as arrays (syntactic
// use, per §4.B) so inference can flag I1 violations.
type Builder struct {
	prog      *Program
	arrayUses map[string]bool

	// per-function state, reset by newFunc
	f          *Func
	cur        *Block
	nextTemp   Temp
	nextLabel  Label
	loopBreak  []Label
	loopCont   []Label
}

func Build(p *parser.Program) (*Program, map[string]bool) {
	b := &Builder{
		prog:      &Program{Funcs: map[string]*Func{}},
		arrayUses: map[string]bool{},
	}
	// Two passes: first register function signatures so forward calls
	// resolve, then lower bodies.
	for _, item := range p.Items {
		if fn, ok := item.(*parser.FuncDef); ok {
			b.prog.Funcs[fn.Name] = &Func{Name: fn.Name, Params: fn.Params}
		}
	}
	ruleIdx := 0
	for _, item := range p.Items {
		switch it := item.(type) {
		case *parser.BeginBlock:
			b.prog.Begin = append(b.prog.Begin, b.buildFunc("BEGIN", nil, it.Body))
		case *parser.EndBlock:
			b.prog.End = append(b.prog.End, b.buildFunc("END", nil, it.Body))
		case *parser.Rule:
			name := fmt.Sprintf("rule$%d", ruleIdx)
			ruleIdx++
			if it.Pattern != nil {
				b.prog.Patterns = append(b.prog.Patterns, b.buildPatternFunc(name+"$pattern", it.Pattern))
			} else {
				b.prog.Patterns = append(b.prog.Patterns, nil)
			}
			b.prog.Main = append(b.prog.Main, b.buildFunc(name, nil, it.Body))
		case *parser.FuncDef:
			built := b.buildFunc(it.Name, it.Params, it.Body)
			b.prog.Funcs[it.Name] = built
		}
	}
	return b.prog, b.arrayUses
}

func (b *Builder) buildPatternFunc(name string, e parser.Expr) *Func {
	b.newFunc(name, nil)
	t := b.expr(e)
	b.emit(Instr{Op: OpReturn, Args: []Temp{t}})
	b.finishBlock()
	return b.f
}

func (b *Builder) buildFunc(name string, params []string, body []parser.Stmt) *Func {
	b.newFunc(name, params)
	for _, s := range body {
		b.stmt(s)
	}
	b.finishBlock()
	return b.f
}

func (b *Builder) newFunc(name string, params []string) {
	b.f = &Func{Name: name, Params: params}
	b.nextTemp = 0
	b.nextLabel = 0
	b.loopBreak = nil
	b.loopCont = nil
	b.cur = &Block{Label: b.newLabel()}
	b.f.Blocks = append(b.f.Blocks, b.cur)
}

func (b *Builder) newTemp() Temp {
	t := b.nextTemp
	b.nextTemp++
	return t
}

func (b *Builder) newLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	return l
}

func (b *Builder) emit(i Instr) {
	b.cur.Instrs = append(b.cur.Instrs, i)
}

// startBlock appends a new block labelled l and makes it current. It
// emits no jump: the block before it either ends in a jump the caller
// emitted or falls through into the new block.
func (b *Builder) startBlock(l Label) {
	blk := &Block{Label: l}
	b.f.Blocks = append(b.f.Blocks, blk)
	b.cur = blk
}

func (b *Builder) finishBlock() {
	b.f.NumTemps = int(b.nextTemp)
}

func (b *Builder) jump(l Label) { b.emit(Instr{Op: OpJump, Target: l}) }

func (b *Builder) jumpIfFalse(cond Temp, l Label) {
	b.emit(Instr{Op: OpJumpIfFalse, Args: []Temp{cond}, Target: l})
}

// ---- statements ----

func (b *Builder) stmt(s parser.Stmt) {
	switch st := s.(type) {
	case *parser.BlockStmt:
		for _, inner := range st.Stmts {
			b.stmt(inner)
		}
	case *parser.ExprStmt:
		t := b.expr(st.X)
		b.emit(Instr{Op: OpPop, Args: []Temp{t}})
	case *parser.PrintStmt:
		args := b.exprList(st.Args)
		instr := Instr{Op: OpPrint, Args: args, Str: redirectOp(st.Dest), Loc: st.Loc}
		if st.Dest != nil {
			instr.Subs = []Temp{b.expr(st.Dest.Target)}
		}
		b.emit(instr)
	case *parser.PrintfStmt:
		args := b.exprList(st.Args)
		instr := Instr{Op: OpPrintf, Args: args, Str: redirectOp(st.Dest), Loc: st.Loc}
		if st.Dest != nil {
			instr.Subs = []Temp{b.expr(st.Dest.Target)}
		}
		b.emit(instr)
	case *parser.IfStmt:
		b.ifStmt(st)
	case *parser.WhileStmt:
		b.whileStmt(st)
	case *parser.DoWhileStmt:
		b.doWhileStmt(st)
	case *parser.ForStmt:
		b.forStmt(st)
	case *parser.ForInStmt:
		b.forInStmt(st)
	case *parser.NextStmt:
		b.emit(Instr{Op: OpNext})
	case *parser.NextfileStmt:
		b.emit(Instr{Op: OpNextfile})
	case *parser.ExitStmt:
		var t Temp = -1
		if st.Code != nil {
			t = b.expr(st.Code)
		}
		b.emit(Instr{Op: OpExit, Args: []Temp{t}})
	case *parser.ReturnStmt:
		var t Temp = -1
		if st.Value != nil {
			t = b.expr(st.Value)
		}
		b.emit(Instr{Op: OpReturn, Args: []Temp{t}})
	case *parser.BreakStmt:
		if len(b.loopBreak) > 0 {
			b.jump(b.loopBreak[len(b.loopBreak)-1])
		}
	case *parser.ContinueStmt:
		if len(b.loopCont) > 0 {
			b.jump(b.loopCont[len(b.loopCont)-1])
		}
	case *parser.DeleteStmt:
		b.arrayUses[st.Array] = true
		subs := b.exprList(st.Subscripts)
		b.emit(Instr{Op: OpArrayDelete, Str: st.Array, Subs: subs})
	default:
		// unreachable for a well-formed parser.Program
	}
}

func redirectOp(d *parser.OutputRedirect) string {
	if d == nil {
		return ""
	}
	return d.Mode
}

func (b *Builder) ifStmt(st *parser.IfStmt) {
	cond := b.expr(st.Cond)
	elseL := b.newLabel()
	endL := b.newLabel()
	b.jumpIfFalse(cond, elseL)
	for _, s := range st.Then {
		b.stmt(s)
	}
	b.jump(endL)
	b.startBlock(elseL)
	for _, s := range st.Else {
		b.stmt(s)
	}
	b.startBlock(endL)
}

func (b *Builder) whileStmt(st *parser.WhileStmt) {
	headL := b.newLabel()
	bodyL := b.newLabel()
	endL := b.newLabel()
	b.jump(headL)
	b.startBlock(headL)
	cond := b.expr(st.Cond)
	b.jumpIfFalse(cond, endL)
	b.startBlock(bodyL)
	b.loopBreak = append(b.loopBreak, endL)
	b.loopCont = append(b.loopCont, headL)
	for _, s := range st.Body {
		b.stmt(s)
	}
	b.loopBreak = b.loopBreak[:len(b.loopBreak)-1]
	b.loopCont = b.loopCont[:len(b.loopCont)-1]
	b.jump(headL)
	b.startBlock(endL)
}

func (b *Builder) doWhileStmt(st *parser.DoWhileStmt) {
	bodyL := b.newLabel()
	condL := b.newLabel()
	endL := b.newLabel()
	b.jump(bodyL)
	b.startBlock(bodyL)
	b.loopBreak = append(b.loopBreak, endL)
	b.loopCont = append(b.loopCont, condL)
	for _, s := range st.Body {
		b.stmt(s)
	}
	b.loopBreak = b.loopBreak[:len(b.loopBreak)-1]
	b.loopCont = b.loopCont[:len(b.loopCont)-1]
	b.startBlock(condL)
	cond := b.expr(st.Cond)
	b.emit(Instr{Op: OpJumpIfFalse, Args: []Temp{cond}, Target: endL})
	b.jump(bodyL)
	b.startBlock(endL)
}

func (b *Builder) forStmt(st *parser.ForStmt) {
	if st.Init != nil {
		b.stmt(st.Init)
	}
	headL := b.newLabel()
	bodyL := b.newLabel()
	postL := b.newLabel()
	endL := b.newLabel()
	b.jump(headL)
	b.startBlock(headL)
	if st.Cond != nil {
		cond := b.expr(st.Cond)
		b.jumpIfFalse(cond, endL)
	}
	b.startBlock(bodyL)
	b.loopBreak = append(b.loopBreak, endL)
	b.loopCont = append(b.loopCont, postL)
	for _, s := range st.Body {
		b.stmt(s)
	}
	b.loopBreak = b.loopBreak[:len(b.loopBreak)-1]
	b.loopCont = b.loopCont[:len(b.loopCont)-1]
	b.startBlock(postL)
	if st.Post != nil {
		b.stmt(st.Post)
	}
	b.jump(headL)
	b.startBlock(endL)
}

func (b *Builder) forInStmt(st *parser.ForInStmt) {
	b.arrayUses[st.ArrayName] = true
	headL := b.newLabel()
	bodyL := b.newLabel()
	endL := b.newLabel()
	b.emit(Instr{Op: OpIterInit, Str: st.ArrayName})
	b.jump(headL)
	b.startBlock(headL)
	keyTemp := b.newTemp()
	b.emit(Instr{Op: OpIterNext, Dst: keyTemp, Str: st.VarName, Target: endL})
	b.startBlock(bodyL)
	b.loopBreak = append(b.loopBreak, endL)
	b.loopCont = append(b.loopCont, headL)
	for _, s := range st.Body {
		b.stmt(s)
	}
	b.loopBreak = b.loopBreak[:len(b.loopBreak)-1]
	b.loopCont = b.loopCont[:len(b.loopCont)-1]
	b.jump(headL)
	b.startBlock(endL)
	b.emit(Instr{Op: OpIterEnd, Str: st.ArrayName})
}

// ---- expressions ----

func (b *Builder) exprList(es []parser.Expr) []Temp {
	ts := make([]Temp, len(es))
	for i, e := range es {
		ts[i] = b.expr(e)
	}
	return ts
}

// arrayOutParams names the builtins whose listed (0-based) argument
// positions are an array passed by reference rather than an ordinary
// scalar expression — split's destination array, json_decode/
// csv_decode's decoded-record destination, db_query's result-table
// destination (spec SPEC_FULL.md Domain Stack). Unlike a user-defined
// function's array parameters, these are fixed by the builtin's
// signature, so the array-ness is known here regardless of whether the
// argument name is ever indexed elsewhere in the program.
var arrayOutParams = map[string][]int{
	"split":       {1},
	"json_decode": {1},
	"csv_decode":  {1},
	"db_query":    {2},
}

// callArgs lowers a call's argument list, routing any argument position
// that name's builtin signature treats as an array out-parameter
// through arrayRef instead of an ordinary scalar load.
func (b *Builder) callArgs(name string, es []parser.Expr) []Temp {
	arrayPos := arrayOutParams[name]
	ts := make([]Temp, len(es))
	for i, e := range es {
		if contains(arrayPos, i) {
			if v, ok := e.(*parser.VarExpr); ok {
				ts[i] = b.arrayRef(v.Name, v.Loc)
				continue
			}
		}
		ts[i] = b.regexOperand(e)
	}
	return ts
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// arrayRef marks name as array-used and emits a reference to its
// storage (not a copy — aliases the same IntMap/StrMap the callee
// mutates, per I3) for passing to a builtin's array out-parameter.
func (b *Builder) arrayRef(name string, loc errors.Location) Temp {
	b.arrayUses[name] = true
	t := b.newTemp()
	b.emit(Instr{Op: OpArrayRef, Dst: t, Str: name, Loc: loc})
	return t
}

// subst lowers sub()/gsub() (global selects gsub). Its third argument
// — a variable, field, or array element, defaulting to $0 when
// omitted — is an lvalue the call mutates in place, the same shape
// lvalStore already resolves for assignment, so this mirrors that
// switch instead of going through callArgs/OpCall.
func (b *Builder) subst(x *parser.CallExpr, global bool) Temp {
	pattern := b.regexOperand(x.Args[0])
	repl := b.expr(x.Args[1])
	dst := b.newTemp()
	instr := Instr{Op: OpSubst, Dst: dst, Args: []Temp{pattern, repl}, Negate: global, Loc: x.Loc}

	var target parser.Expr
	if len(x.Args) >= 3 {
		target = x.Args[2]
	}
	switch t := target.(type) {
	case *parser.VarExpr:
		instr.GM = 1
		instr.Str = t.Name
	case *parser.IndexExpr:
		instr.GM = 2
		instr.Str = t.Array
		instr.Subs = b.exprList(t.Subscripts)
		b.arrayUses[t.Array] = true
	case *parser.FieldExpr:
		idx := b.expr(t.Index)
		instr.Args = append(instr.Args, idx)
	default: // implicit $0
		zero := b.newTemp()
		b.emit(Instr{Op: OpConstNum, Dst: zero, Num: 0})
		instr.Args = append(instr.Args, zero)
	}
	b.emit(instr)
	return dst
}

// regexOperand lowers an operand in a pattern position (the right side
// of ~ and !~, sub/gsub's pattern, a call argument): a regex literal
// there stands for its pattern text, not for `$0 ~ /re/`.
func (b *Builder) regexOperand(e parser.Expr) Temp {
	if x, ok := e.(*parser.RegexLit); ok {
		t := b.newTemp()
		b.emit(Instr{Op: OpConstRegex, Dst: t, Str: x.Pattern, Loc: x.Loc})
		return t
	}
	return b.expr(e)
}

func (b *Builder) expr(e parser.Expr) Temp {
	switch x := e.(type) {
	case *parser.NumberLit:
		t := b.newTemp()
		b.emit(Instr{Op: OpConstNum, Dst: t, Num: x.Value, Loc: x.Loc})
		return t
	case *parser.StringLit:
		t := b.newTemp()
		b.emit(Instr{Op: OpConstStr, Dst: t, Str: x.Value, Loc: x.Loc})
		return t
	case *parser.RegexLit:
		// bare regex is shorthand for `$0 ~ /re/`
		t := b.newTemp()
		b.emit(Instr{Op: OpConstRegex, Dst: t, Str: x.Pattern, Loc: x.Loc})
		field := b.newTemp()
		zero := b.newTemp()
		b.emit(Instr{Op: OpConstNum, Dst: zero, Num: 0})
		b.emit(Instr{Op: OpLoadField, Dst: field, Args: []Temp{zero}})
		res := b.newTemp()
		b.emit(Instr{Op: OpMatch, Dst: res, Args: []Temp{field, t}, Loc: x.Loc})
		return res
	case *parser.VarExpr:
		t := b.newTemp()
		b.emit(Instr{Op: OpLoadVar, Dst: t, Str: x.Name, Loc: x.Loc})
		return t
	case *parser.FieldExpr:
		idx := b.expr(x.Index)
		t := b.newTemp()
		b.emit(Instr{Op: OpLoadField, Dst: t, Args: []Temp{idx}, Loc: x.Loc})
		return t
	case *parser.IndexExpr:
		b.arrayUses[x.Array] = true
		subs := b.exprList(x.Subscripts)
		t := b.newTemp()
		b.emit(Instr{Op: OpArrayGet, Dst: t, Str: x.Array, Subs: subs, Loc: x.Loc})
		return t
	case *parser.AssignExpr:
		return b.assign(x)
	case *parser.BinaryExpr:
		l := b.expr(x.Left)
		r := b.expr(x.Right)
		t := b.newTemp()
		b.emit(Instr{Op: OpBinary, Dst: t, Args: []Temp{l, r}, Str: x.Op, Loc: x.Loc})
		return t
	case *parser.UnaryExpr:
		o := b.expr(x.Operand)
		t := b.newTemp()
		b.emit(Instr{Op: OpUnary, Dst: t, Args: []Temp{o}, Str: x.Op, Loc: x.Loc})
		return t
	case *parser.IncrDecrExpr:
		return b.incrDecr(x)
	case *parser.TernaryExpr:
		return b.ternary(x)
	case *parser.MatchExpr:
		l := b.expr(x.Left)
		r := b.regexOperand(x.Right)
		t := b.newTemp()
		b.emit(Instr{Op: OpMatch, Dst: t, Args: []Temp{l, r}, Negate: x.Negate, Loc: x.Loc})
		return t
	case *parser.InExpr:
		b.arrayUses[x.Array] = true
		subs := b.exprList(x.Subscripts)
		t := b.newTemp()
		b.emit(Instr{Op: OpArrayIn, Dst: t, Str: x.Array, Subs: subs, Loc: x.Loc})
		return t
	case *parser.CallExpr:
		if x.Name == "sub" || x.Name == "gsub" {
			return b.subst(x, x.Name == "gsub")
		}
		args := b.callArgs(x.Name, x.Args)
		t := b.newTemp()
		b.emit(Instr{Op: OpCall, Dst: t, Args: args, Str: x.Name, Loc: x.Loc})
		return t
	case *parser.GetlineExpr:
		return b.getline(x)
	case *parser.ConcatExpr:
		parts := b.exprList(x.Parts)
		t := b.newTemp()
		b.emit(Instr{Op: OpConcat, Dst: t, Args: parts, Loc: x.Loc})
		return t
	case *parser.GroupExpr:
		// a single-element group degrades to its value. A multi-element
		// group reaches here only as a range pattern's (start, end)
		// pair from parseRule; every element is evaluated and the last
		// one's value is the result, so no range state is kept.
		if len(x.Exprs) == 1 {
			return b.expr(x.Exprs[0])
		}
		var last Temp
		for _, e := range x.Exprs {
			last = b.expr(e)
		}
		return last
	default:
		t := b.newTemp()
		b.emit(Instr{Op: OpConstNum, Dst: t, Num: 0})
		return t
	}
}

func (b *Builder) assign(x *parser.AssignExpr) Temp {
	rhs := b.expr(x.Value)
	if x.Op != "=" {
		cur := b.lvalLoad(x.Target)
		combined := b.newTemp()
		b.emit(Instr{Op: OpBinary, Dst: combined, Args: []Temp{cur, rhs}, Str: x.Op[:len(x.Op)-1], Loc: x.Loc})
		rhs = combined
	}
	b.lvalStore(x.Target, rhs)
	return rhs
}

func (b *Builder) lvalLoad(target parser.Expr) Temp {
	switch t := target.(type) {
	case *parser.VarExpr:
		tmp := b.newTemp()
		b.emit(Instr{Op: OpLoadVar, Dst: tmp, Str: t.Name})
		return tmp
	case *parser.FieldExpr:
		idx := b.expr(t.Index)
		tmp := b.newTemp()
		b.emit(Instr{Op: OpLoadField, Dst: tmp, Args: []Temp{idx}})
		return tmp
	case *parser.IndexExpr:
		b.arrayUses[t.Array] = true
		subs := b.exprList(t.Subscripts)
		tmp := b.newTemp()
		b.emit(Instr{Op: OpArrayGet, Dst: tmp, Str: t.Array, Subs: subs})
		return tmp
	}
	return b.newTemp()
}

func (b *Builder) lvalStore(target parser.Expr, value Temp) {
	switch t := target.(type) {
	case *parser.VarExpr:
		b.emit(Instr{Op: OpStoreVar, Str: t.Name, Args: []Temp{value}})
	case *parser.FieldExpr:
		idx := b.expr(t.Index)
		b.emit(Instr{Op: OpStoreField, Args: []Temp{idx, value}})
	case *parser.IndexExpr:
		b.arrayUses[t.Array] = true
		subs := b.exprList(t.Subscripts)
		b.emit(Instr{Op: OpArraySet, Str: t.Array, Subs: subs, Args: []Temp{value}})
	}
}

func (b *Builder) incrDecr(x *parser.IncrDecrExpr) Temp {
	cur := b.lvalLoad(x.Target)
	one := b.newTemp()
	b.emit(Instr{Op: OpConstNum, Dst: one, Num: 1})
	op := "+"
	if x.Op == "--" {
		op = "-"
	}
	updated := b.newTemp()
	b.emit(Instr{Op: OpBinary, Dst: updated, Args: []Temp{cur, one}, Str: op, Loc: x.Loc})
	b.lvalStore(x.Target, updated)
	if x.Prefix {
		return updated
	}
	return cur
}

func (b *Builder) ternary(x *parser.TernaryExpr) Temp {
	result := b.newTemp()
	cond := b.expr(x.Cond)
	elseL := b.newLabel()
	endL := b.newLabel()
	b.jumpIfFalse(cond, elseL)
	thenVal := b.expr(x.Then)
	b.emit(Instr{Op: OpStoreVar, Str: tempVarName(result), Args: []Temp{thenVal}})
	b.jump(endL)
	b.startBlock(elseL)
	elseVal := b.expr(x.Else)
	b.emit(Instr{Op: OpStoreVar, Str: tempVarName(result), Args: []Temp{elseVal}})
	b.startBlock(endL)
	out := b.newTemp()
	b.emit(Instr{Op: OpLoadVar, Dst: out, Str: tempVarName(result)})
	return out
}

// tempVarName gives a merge temp a hidden variable name so conditional
// branches can communicate a value without true SSA phi nodes; the
// leading "$" can't collide with a user identifier (those never start
// with '$' — that prefix is reserved for $-field syntax).
func tempVarName(t Temp) string { return fmt.Sprintf("$t%d", t) }

func (b *Builder) getline(x *parser.GetlineExpr) Temp {
	var varTemp Temp = -1
	var varName string
	var isField bool
	var fieldIdx Temp = -1
	switch v := x.Var.(type) {
	case *parser.VarExpr:
		varName = v.Name
	case *parser.FieldExpr:
		isField = true
		fieldIdx = b.expr(v.Index)
	}
	var src Temp = -1
	if x.Source != nil {
		src = b.expr(x.Source)
	}
	result := b.newTemp()
	args := []Temp{src, fieldIdx}
	_ = varTemp
	instr := Instr{Op: OpGetline, Dst: result, Args: args, Str: varName, GM: int(x.Mode), Loc: x.Loc}
	if isField {
		instr.Negate = true // reuse as a "var target is a field" marker
	}
	b.emit(instr)
	return result
}
