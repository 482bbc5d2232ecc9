package engine

import (
	"database/sql"
	"fmt"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by this package. It is
// github.com/mattn/go-sqlite3 (FTS3/FTS4 compiled in) with the connection
// hooks added through AddConnectHook.
const DriverName = "sqlite3_fts4rank"

// ConnectHook prepares a freshly opened connection, typically by registering
// SQL functions on it.
type ConnectHook func(conn *sqlite3.SQLiteConn) error

type namedHook struct {
	name string
	fn   ConnectHook
}

var (
	hooksMu sync.RWMutex
	hooks   []namedHook
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{ConnectHook: connect})
}

// AddConnectHook installs fn under name. Adding a hook with a name already
// in use replaces it. Only connections opened afterwards run it.
func AddConnectHook(name string, fn ConnectHook) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	for i := range hooks {
		if hooks[i].name == name {
			hooks[i].fn = fn
			return
		}
	}
	hooks = append(hooks, namedHook{name: name, fn: fn})
}

func connect(conn *sqlite3.SQLiteConn) error {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	for _, h := range hooks {
		if err := h.fn(conn); err != nil {
			return fmt.Errorf("engine: %s: %w", h.name, err)
		}
	}
	return nil
}

// Open opens a SQLite database through DriverName.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:"; every connection then gets its own database,
// so callers usually pin the pool to one connection.
func Open(dsn string) (*sql.DB, error) { return sql.Open(DriverName, dsn) }
