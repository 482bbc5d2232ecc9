// Package engine provides helpers for working with the SQLite driver in this
// module: opening connections and registering the matchinfo decoding and
// ranking SQL scalar functions. The driver is github.com/mattn/go-sqlite3,
// which ships the FTS4 extension and its matchinfo() function. Functions are
// installed on each new connection through connection hooks, so other
// packages (ftsadmin) share the same driver instance.
package engine
