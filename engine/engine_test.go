package engine

import (
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// TestOpenInMemory verifies that we can open an in-memory SQLite database
// and that FTS4 and matchinfo() are compiled in.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("CREATE VIRTUAL TABLE t USING fts4(x)"); err != nil {
		t.Fatalf("CREATE VIRTUAL TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t(x) VALUES ('one'),('two'),('three')"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}
	var info []byte
	if err := db.QueryRow("SELECT matchinfo(t, 'pc') FROM t WHERE t MATCH 'two'").Scan(&info); err != nil {
		t.Fatalf("matchinfo query failed: %v", err)
	}
	if len(info) != 8 {
		t.Fatalf("matchinfo(t, 'pc') is %d bytes, want 8", len(info))
	}
}

func TestAddConnectHook(t *testing.T) {
	register := func(answer int64) ConnectHook {
		return func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("engine_answer", func() int64 { return answer }, true)
		}
	}
	AddConnectHook("engine_answer", register(41))
	AddConnectHook("engine_answer", register(42))

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	var got int64
	if err := db.QueryRow("SELECT engine_answer()").Scan(&got); err != nil {
		t.Fatalf("engine_answer() failed: %v", err)
	}
	if got != 42 {
		t.Fatalf("engine_answer() = %d, want 42 from the replacing hook", got)
	}
}
