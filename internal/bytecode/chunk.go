package bytecode

import "zawk/internal/errors"

// Operand is a single (bank, index) register reference.
type Operand struct {
	Bank Bank
	Reg  int
}

// Instr is one bytecode instruction. Not every field is meaningful for
// every Op; see the per-Op comments in opcodes.go. This mirrors the
// donor's Chunk.Debug-per-instruction idea (one DebugInfo slot per
// opcode) by carrying Loc directly on the instruction instead of a
// parallel slice, which is simpler given instructions are already
// variably sized.
type Instr struct {
	Op   Op
	Dst  Operand
	A, B Operand
	Args []Operand

	Imm float64
	Str string

	Target int // absolute instruction index, for jumps
	Loc    errors.Location
}

// Func is one compiled body: a program phase or a monomorphized user
// function. RegCount holds the number of registers needed per bank, so
// the VM can preallocate frames without growing slices mid-execution.
type Func struct {
	Name     string
	ID       int
	NumParam int
	ParamBanks []Bank
	RetBank  Bank
	Code     []Instr
	RegCount map[Bank]int
}

// Program is the whole compiled unit: one Func per BEGIN/pattern/main
// rule/END plus one per monomorphized user function, addressed by ID
// for OpCallUser.
type Program struct {
	Begin    []*Func
	Patterns []*Func
	Main     []*Func
	End      []*Func
	Funcs    []*Func // indexed by Func.ID

	// GlobalSlots maps a variable name to its (bank, slot) Operand,
	// resolved once at lowering time and embedded directly into every
	// OpLoadGlobal/OpStoreGlobal instruction that touches it.
	GlobalSlots map[string]Operand
	ArrayBank   map[string]Bank // BankIntMap or BankStrMap, per array name
}
