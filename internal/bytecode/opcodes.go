// Package bytecode is the typed, register-addressed instruction format
// the lowerer (internal/compiler) emits and the interpreter/JIT
// (internal/vm, internal/jit) consume. Unlike the donor's vmregister,
// which NaN-boxes one flat Value bank, zawk's register file is split
// per scalar/array kind (spec §4.D): an instruction's operands name a
// (bank, index) pair rather than a single untyped register number,
// since the type inference pass (internal/typeinfer) has already fixed
// each Temp's bank at compile time and there is no value left to box.
package bytecode

// Bank names which typed register file an operand lives in.
type Bank uint8

const (
	BankNone Bank = iota
	BankInt
	BankFloat
	BankStr
	BankIntMap
	BankStrMap
	BankIter
)

func (b Bank) String() string {
	switch b {
	case BankInt:
		return "Int"
	case BankFloat:
		return "Float"
	case BankStr:
		return "Str"
	case BankIntMap:
		return "IntMap"
	case BankStrMap:
		return "StrMap"
	case BankIter:
		return "Iter"
	default:
		return "None"
	}
}

type Op uint8

const (
	OpNop Op = iota

	// Constant loads.
	OpLoadIntK   // R(Dst:Int) = Imm
	OpLoadFloatK // R(Dst:Float) = Imm
	OpLoadStrK   // R(Dst:Str) = Str

	OpMove // R(Dst:DstBank) = R(A:DstBank)

	// Conversions between banks (monomorphization can still require a
	// widen at a call boundary, e.g. passing an Int actual to a Float
	// formal).
	OpIntToFloat
	OpFloatToInt
	OpNumToStr // Int or Float (selected by ABank) -> Str, using CONVFMT/OFMT rules
	OpStrToNum // Str -> Float

	// Arithmetic (Int bank).
	OpAddI
	OpSubI
	OpMulI
	OpDivI // still produces a Float result per AWK's "/ always divides like a float"; lowerer picks OpDivF instead
	OpModI
	OpPowI
	OpNegI

	// Arithmetic (Float bank).
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpModF
	OpPowF
	OpNegF

	// Comparisons; result always lands in the Int bank (0/1).
	OpCmpEqI
	OpCmpLtI
	OpCmpLeI
	OpCmpEqF
	OpCmpLtF
	OpCmpLeF
	// OpCmpStr compares A and B lexically and sets R(Dst:Int) to the
	// 0/1 result of "A <relop> B", where Imm selects relop:
	// -1 "<", -2 "<=", 0 "==", 1 ">", 2 ">=", 3 "!=".
	OpCmpStr

	OpNot  // Int
	OpAndI // non-short-circuit && over two already-evaluated Int operands
	OpOrI
	OpToBool // R(Dst:Int) = truthiness of R(A:ABank), per AWK's number/string truthiness rule (spec §3)

	// Strings.
	OpConcat // R(Dst:Str) = join(Args..., all Str bank)
	OpMatch  // R(Dst:Int) = R(A:Str) matches regexp compiled from R(B:Str); Imm!=0 negates

	// OpSubst implements sub()/gsub()'s pure substitution step: R(A:Str)
	// is the subject, R(B:Str) the regexp pattern, Args[0] the
	// replacement text (with AWK's &/\& grammar), Args[1] a Str-bank
	// scratch register that receives the substituted text. R(Dst:Int)
	// gets the match count. Imm!=0 selects gsub's repeated replacement
	// over sub's single first match. Storing the scratch register into
	// its real target ($0, a field, a variable, or an array element) is
	// the lowerer's job, exactly like OpGetline's B register.
	OpSubst

	// Fields ($0.. $NF). NF reads/writes go through these two ops
	// rather than OpLoadGlobal/OpStoreGlobal, since NF is never an
	// ordinary variable slot: it mirrors the live record's field count
	// and an assignment to it must truncate or pad the field list
	// (spec §4.H), which only internal/record's Record implementation
	// can do.
	OpLoadField  // R(Dst:Str) = $R(A:Int)
	OpStoreField // $R(A:Int) = R(B:Str)
	OpLoadNF     // R(Dst:Int) = NF
	OpStoreNF    // NF = R(A:Int), truncating/extending $1..$NF and rebuilding $0

	// Globals: the lowerer resolves every name to a fixed (bank, slot)
	// Operand ahead of time. OpLoadGlobal: R(Dst:DstBank) = G(A). Str
	// is kept on both for disassembly only.
	OpLoadGlobal
	OpStoreGlobal // G(A) = R(B:ABank)

	// Arrays. B (or Args[0] for the Set ops, whose A/B are already the
	// key/value) names the array's own storage register — a global
	// slot or, inside a function body, a parameter register — resolved
	// at compile time exactly like OpLoadVar's param-then-global lookup,
	// since frames have no runtime name table to look arrays up by.
	OpArrGetI  // R(Dst:DstBank) = Map(B)[R(A:Int)]   (IntMap)
	OpArrSetI  // Map(Args[0])[R(A:Int)] = R(B:ValBank)
	OpArrGetS  // (StrMap)
	OpArrSetS
	OpArrDelI  // delete Map(B)[R(A:Int)]
	OpArrDelS
	OpArrDelAll // delete every key of Map(A)
	OpArrInI // R(Dst:Int) = R(A:Int) in Map(B)
	OpArrInS

	OpIterInitI // open an iterator over Map(A) into R(Dst:Iter)
	OpIterInitS
	// OpIterNext is jump-shaped like OpJumpIfFalse: A/ABank names the
	// iterator register. When exhausted it jumps to Target instead of
	// falling through; otherwise it writes the next key into
	// R(Dst:DstBank) and falls through to whatever instruction stores
	// that key into the loop variable (an ordinary OpMove or
	// OpStoreGlobal emitted right after it).
	OpIterNext
	OpIterEnd

	// Calls.
	OpCallUser    // Imm = monomorphized function id; Args = actual regs/banks; Dst/DstBank = return slot
	OpCallBuiltin // Str = builtin name; Args = actual regs/banks; Dst/DstBank = return slot
	OpReturn      // A/ABank = value to return, or ABank==BankNone for a bare return

	// getline: Imm mirrors parser.GetlineMode. A/ABank names the source
	// (filename or command text, BankNone for plain stdin-driven
	// getline). Dst/DstBank gets the 1/0/-1 success result; B is a
	// fresh Str-bank scratch register that receives the line text when
	// the read succeeds. Storing that text into its real target ($0, a
	// field, or a variable) is the lowerer's job: it follows OpGetline
	// with an ordinary conditional store (OpJumpIfFalse guarding an
	// OpStoreField/OpMove/OpStoreGlobal) so a failed read leaves the
	// target untouched. Str carries the target variable's name for
	// disassembly only.
	OpGetline

	// I/O. OpPrint's Args are all coerced to Str. OpPrintf's Args[0] is
	// the Str-bank format string; Args[1:] keep their inferred bank
	// uncoerced, since the formatter (internal/output) needs the
	// original Int/Float/Str kind to pick %c's conversion and to format
	// %d/%x/%o/%f without a lossy round-trip through CONVFMT first. Str
	// holds the redirect operator ("", ">", ">>", "|"); when non-empty,
	// A/ABank names the Str-bank redirect target operand.
	OpPrint
	OpPrintf

	// Control flow.
	OpJump
	OpJumpIfFalse // A/ABank names the Int condition register
	OpNext
	OpNextfile
	OpExit // A/ABank names the exit-code register, or ABank==BankNone
)
