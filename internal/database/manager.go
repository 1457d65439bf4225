// Package database is the connection manager behind zawk's db* builtins
// (spec SPEC_FULL.md Domain Stack: db_open/db_query/db_exec/db_close). It
// wraps database/sql the way the donor's DBManager does — a name-keyed
// table of open *sql.DB handles reused across calls until explicitly
// closed — generalized here from security-scan queries to arbitrary
// user SQL.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Manager is the process-wide registry of open connections, addressed
// by the caller-chosen id string passed to db_open.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*conn
}

type conn struct {
	kind string
	db   *sql.DB
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*conn)}
}

// driverName maps a db_open() kind argument to its registered
// database/sql driver. "sqlite3" goes through the cgo mattn driver,
// "sqlite" through the pure-Go modernc one — both are real Domain
// Stack dependencies and a caller may need either, depending on
// whether cgo is available in their build.
func driverName(kind string) (string, error) {
	switch kind {
	case "mysql":
		return "mysql", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "sqlite3":
		return "sqlite3", nil
	case "sqlite":
		return "sqlite", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	}
	return "", fmt.Errorf("unsupported database type %q", kind)
}

// Open connects and registers the handle under id, replacing any prior
// connection of the same id (closing it first).
func (m *Manager) Open(id, kind, dsn string) error {
	driver, err := driverName(kind)
	if err != nil {
		return err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("dbopen %s: %w", id, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("dbopen %s: %w", id, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, exists := m.conns[id]; exists {
		old.db.Close()
	}
	m.conns[id] = &conn{kind: kind, db: db}
	return nil
}

func (m *Manager) get(id string) (*conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("no open connection %q", id)
	}
	return c, nil
}

// Exec runs a statement that doesn't return rows, returning the number
// of rows affected.
func (m *Manager) Exec(id, query string) (int64, error) {
	c, err := m.get(id)
	if err != nil {
		return 0, err
	}
	res, err := c.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("dbexec %s: %w", id, err)
	}
	return res.RowsAffected()
}

// Row is one result row as column name -> stringified value, matching
// AWK's single scalar type per cell (numeric columns are left as the
// driver's textual rendering; callers needing numeric comparisons get
// it for free from AWK's string/number duality, spec §3).
type Row map[string]string

// Query runs a query and returns every row plus the column order (Go
// maps don't preserve it, and callers building a 2-D result array off
// SUBSEP-joined "row"SUBSEP"col" keys want column position for the
// SUBSEP's second component rather than its name).
func (m *Manager) Query(id, query string) ([]Row, []string, error) {
	c, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("dbquery %s: %w", id, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []Row
	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = stringify(vals[i])
		}
		out = append(out, row)
	}
	return out, cols, rows.Err()
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// Close closes and forgets a connection.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("no open connection %q", id)
	}
	delete(m.conns, id)
	return c.db.Close()
}

// CloseAll closes every open connection; called at process exit
// alongside runtime.IOTable.CloseAll.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.conns {
		c.db.Close()
		delete(m.conns, id)
	}
}
