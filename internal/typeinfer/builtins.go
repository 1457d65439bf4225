package typeinfer

// builtinReturn gives the fixed result type of each builtin zawk
// recognizes at a call site. Names absent here but not found among
// prog.Funcs are still accepted and default to Str in inferCall: an
// unknown builtin is most often a string-producing one (sprintf-like),
// and the VM's builtin call (callBuiltin in internal/vm) raises its own
// runtime error at call time for anything truly undefined.
var builtinReturn = map[string]Type{
	// string builtins
	"length":    Int,
	"substr":    Str,
	"index":     Int,
	"split":     Int,
	"sprintf":   Str,
	"sub":       Int,
	"gsub":      Int,
	"match":     Int,
	"tolower":   Str,
	"toupper":   Str,
	"sprintf_s": Str,
	"trim":      Str,
	"ltrim":     Str,
	"rtrim":     Str,
	"join":      Str,

	// math builtins
	"sin":   Float,
	"cos":   Float,
	"atan2": Float,
	"exp":   Float,
	"log":   Float,
	"sqrt":  Float,
	"int":   Int,
	"rand":  Float,
	"srand": Int,

	// I/O / process control
	"system": Int,
	"close":  Int,
	"fflush": Int,

	// JSON / CSV codecs
	"json_encode": Str,
	"json_decode": Int, // decodes into an array arg, returns status
	"csv_encode":  Str,
	"csv_decode":  Int,

	// date/time
	"strftime": Str,
	"mktime":   Int,
	"systime":  Int,

	// hashing / ids
	"md5":       Str,
	"sha256":    Str,
	"blake2b":   Str,
	"bcrypt":    Str,
	"uuid":      Str,
	"humansize": Str,
	"humantime": Str,

	// database
	"db_open":  Int,
	"db_query": Int,
	"db_exec":  Int,
	"db_close": Int,

	// network
	"http_get":  Str,
	"http_post": Str,
	"wsopen":    Int,
	"wssend":    Int,
	"wsrecv":    Str,
	"wsclose":   Int,
}
