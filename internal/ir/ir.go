// Package ir lowers the parsed AST into a per-function CFG of untyped
// three-address operations (spec §4.B). Variables begin untyped; array-
// ness is recorded the moment a name is used with a subscript. Type
// Inference (internal/typeinfer) assigns concrete types to every Temp
// produced here.
package ir

import "zawk/internal/errors"

// Temp is an untyped SSA-like temporary: the Builder gives every Temp
// exactly one producing instruction. There are no phi nodes; where two
// branches merge a value (the ternary operator) the Builder stores both
// arms into a hidden "$tN" variable (see tempVarName in builder.go) and
// loads it back after the join, so type inference can stay
// flow-insensitive per Temp/Var name.
type Temp int

// Label identifies a basic block for jump targets.
type Label int

type Op int

const (
	OpConstNum Op = iota
	OpConstStr
	OpConstRegex
	OpLoadVar
	OpStoreVar
	OpLoadField  // $idx
	OpStoreField // $idx = value
	OpLoadNF
	OpArrayGet    // arr[subs...]
	OpArraySet    // arr[subs...] = value
	OpArrayDelete // delete arr or delete arr[subs]
	OpArrayIn     // (subs) in arr -> bool
	OpIterInit    // open an iterator over arr, bind loop var each Next
	OpIterNext    // advance; reports whether a value was produced
	OpIterEnd
	OpBinary  // Left Op Right
	OpUnary   // Op Operand
	OpConcat  // join N operands as strings
	OpMatch   // Left ~ Right (Left !~ Right when Negate is set)
	OpCall     // user or builtin function call
	OpArrayRef // pass an array by reference as a call argument
	// OpSubst implements sub()/gsub(): Args[0]/Args[1] are the pattern
	// and replacement expressions; Negate selects gsub (true) vs sub
	// (false); GM names the target's kind (0 = field, 1 = var, 2 =
	// array element) the way OpGetline's GM names a getline mode; Str
	// carries the target variable/array name (GM 1/2 only); Subs holds
	// array subscripts (GM 2 only); a field target's index expression
	// is appended as a third entry in Args (GM 0 only). Dst receives
	// the match count. Unlike an ordinary call, sub/gsub's third
	// argument is an lvalue the call mutates in place, so it can't go
	// through OpCall/callArgs like any other builtin.
	OpSubst
	OpTernary // Cond, Then, Else
	OpIncrDecr
	OpGetline
	OpPrint
	OpPrintf
	OpJump
	OpJumpIfFalse
	OpLabel
	OpNext
	OpNextfile
	OpExit
	OpReturn
	OpPop // discard an expression statement's value
)

// Instr is one three-address operation. Not every field applies to
// every Op; see the Op-specific comments above.
type Instr struct {
	Op       Op
	Dst      Temp     // result temp, where applicable
	Args     []Temp   // operand temps
	Str      string   // var/array name, binary/unary operator text, function name
	Num      float64  // numeric immediate (OpConstNum)
	Negate   bool      // OpMatch
	Target   Label    // jump target
	Subs     []Temp   // array subscripts
	GM       int      // GetlineMode, mirrors parser.GetlineMode
	Loc      errors.Location
}

// Block is a straight-line run of instructions ending in a jump,
// conditional jump, return, or fallthrough to the next block.
type Block struct {
	Label Label
	Instrs []Instr
}

// Func is one compiled body: a user function, or one of the three
// program phases (BEGIN/main-per-record/END). Params is empty for
// phases.
type Func struct {
	Name   string
	Params []string
	Blocks []*Block
	NumTemps int
}

// Program is the whole untyped CFG: one Func per phase plus one per
// user-defined function, in source order.
type Program struct {
	Begin []*Func // zero or more BEGIN blocks, each its own Func named "BEGIN"
	Main  []*Func // rule bodies, one Func per pattern/action rule
	End   []*Func // END blocks

	// Patterns holds the untyped pattern expression per Main rule,
	// compiled into its own tiny Func ("rule$N$pattern") so it goes through
	// the same type inference and bytecode lowering as any other code.
	Patterns []*Func

	Funcs map[string]*Func // user-defined functions, keyed by name
}
