// Package ftsadmin exposes FTS4 maintenance commands as an SQL function.
//
// Usage:
//
//	SELECT fts_admin('docs:optimize');
//
// The argument is "<fts table>:<command>" where command is one of optimize,
// rebuild, integrity-check, merge=X[,Y] or automerge=N; a bare table name
// means optimize. The command runs on the connection evaluating the call and
// the function returns "<command>:<table>" on success.
package ftsadmin

import (
	"database/sql/driver"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/viant/sqlite-fts4rank/engine"
	"github.com/viant/sqlite-fts4rank/fts"
)

// FunctionName is the SQL name of the admin function.
const FunctionName = "fts_admin"

// Register installs fts_admin on every connection opened through engine.Open
// after this call.
func Register() {
	engine.AddConnectHook(FunctionName, func(conn *sqlite3.SQLiteConn) error {
		return conn.RegisterFunc(FunctionName, func(op any) (any, error) { return run(conn, op) }, false)
	})
}

func run(conn *sqlite3.SQLiteConn, op any) (any, error) {
	var arg string
	switch v := op.(type) {
	case string:
		arg = v
	case []byte:
		if v == nil {
			return nil, nil
		}
		arg = string(v)
	default:
		return nil, fmt.Errorf("%s: argument must be '<table>:<command>' as TEXT, got %T", FunctionName, op)
	}
	table, command, err := parseOp(arg)
	if err != nil {
		return nil, err
	}
	stmt, err := fts.CommandSQL(table, command)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FunctionName, err)
	}
	if _, err := conn.Exec(stmt, []driver.Value{command}); err != nil {
		return nil, fmt.Errorf("%s: %s on %s: %w", FunctionName, command, table, err)
	}
	return command + ":" + table, nil
}

// parseOp splits "<table>:<command>"; a bare table name means optimize.
func parseOp(arg string) (table, command string, err error) {
	table, command, found := strings.Cut(strings.TrimSpace(arg), ":")
	table = strings.TrimSpace(table)
	command = strings.ToLower(strings.TrimSpace(command))
	if !found || command == "" {
		command = "optimize"
	}
	if table == "" {
		return "", "", fmt.Errorf("%s: argument %q has no table", FunctionName, arg)
	}
	return table, command, nil
}
