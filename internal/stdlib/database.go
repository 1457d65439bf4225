package stdlib

import (
	"strconv"

	"zawk/internal/database"
	"zawk/internal/runtime"
	"zawk/internal/vm"
)

func addDatabaseFuncs(t map[string]vm.Builtin, db *database.Manager) {
	t["db_open"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		kind := arg(args, 1).String(m.ConvFmt())
		dsn := arg(args, 2).String(m.ConvFmt())
		if err := db.Open(id, kind, dsn); err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(0), nil
	}
	t["db_exec"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		query := arg(args, 1).String(m.ConvFmt())
		n, err := db.Exec(id, query)
		if err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(n), nil
	}
	t["db_close"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, error) {
		id := arg(args, 0).String(m.ConvFmt())
		if err := db.Close(id); err != nil {
			return runtime.Int(-1), nil
		}
		return runtime.Int(0), nil
	}
}

// addDatabaseArrayFuncs registers db_query, which like split() needs an
// array destination: it fills arr[row SUBSEP col] = value for every
// result cell and arr[row SUBSEP "_ncols"] would overreach the
// convention, so column order instead lives in a synthetic row 0: arr[0
// SUBSEP col] = column name for col in 0..ncols-1. Returns the number
// of data rows, or -1 on a query error, mirroring db_exec/db_open.
func addDatabaseArrayFuncs(t map[string]vm.ArrayOutBuiltin, db *database.Manager) {
	t["db_query"] = func(m *vm.Machine, args []runtime.Value) (runtime.Value, []vm.ArrayEntry, error) {
		id := arg(args, 0).String(m.ConvFmt())
		query := arg(args, 1).String(m.ConvFmt())
		rows, cols, err := db.Query(id, query)
		if err != nil {
			return runtime.Int(-1), nil, nil
		}
		sep := m.SubSep()
		entries := make([]vm.ArrayEntry, 0, len(cols)+len(rows)*len(cols))
		for ci, col := range cols {
			key := "0" + sep + strconv.Itoa(ci+1)
			entries = append(entries, vm.ArrayEntry{Key: key, Val: runtime.Str(col)})
		}
		for ri, row := range rows {
			for ci, col := range cols {
				key := strconv.Itoa(ri+1) + sep + strconv.Itoa(ci+1)
				entries = append(entries, vm.ArrayEntry{Key: key, Val: runtime.Str(row[col])})
			}
		}
		return runtime.Int(int64(len(rows))), entries, nil
	}
}
