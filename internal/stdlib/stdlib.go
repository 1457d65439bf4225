// Package stdlib implements zawk's builtin function library (spec
// SPEC_FULL.md Domain Stack): the AWK baseline (length, substr, index,
// match, tolower/toupper, trim family, join, sprintf) plus the expanded
// math, process-control, JSON/CSV, date/time, hashing, database and
// network builtins. Table and ArrayTable build the two dispatch maps
// internal/vm.NewMachine wires in.
//
// split, sub and gsub are not here: split's destination array and
// sub/gsub's in-place target argument need raw register access the
// Builtin/ArrayOutBuiltin calling conventions don't carry, so the
// interpreter implements all three directly (internal/vm/call.go,
// internal/vm/subst.go).
package stdlib

import (
	"zawk/internal/database"
	"zawk/internal/network"
	"zawk/internal/vm"
)

// Services bundles the process-wide connection managers the db*/http*/
// ws* builtins need. cmd/zawk owns their lifetime — constructing them,
// passing the same instances to Table/ArrayTable, and CloseAll-ing them
// at exit — so a zawk program's connections don't outlive the process.
type Services struct {
	DB  *database.Manager
	Net *network.Manager
}

// Table builds the scalar builtin dispatch table.
func Table(svc *Services) map[string]vm.Builtin {
	t := map[string]vm.Builtin{}
	addStringFuncs(t)
	addMathFuncs(t)
	addIOFuncs(t)
	addCodecFuncs(t)
	addDateTimeFuncs(t)
	addHashFuncs(t)
	addDatabaseFuncs(t, svc.DB)
	addNetworkFuncs(t, svc.Net)
	return t
}

// ArrayTable builds the array-out builtin dispatch table: split's
// calling convention (internal/vm.ArrayOutBuiltin) generalized to every
// other builtin that fills an array out-parameter.
func ArrayTable(svc *Services) map[string]vm.ArrayOutBuiltin {
	t := map[string]vm.ArrayOutBuiltin{}
	addCodecArrayFuncs(t)
	addDatabaseArrayFuncs(t, svc.DB)
	return t
}
