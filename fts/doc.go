// Package fts defines a small document store on top of a SQLite FTS4 table
// with external content. It includes:
//   - Document model and Store interface
//   - Schema helpers creating the content table, the FTS4 table and the
//     triggers that keep the two in sync
//   - SQLiteStore: search ranked in Go from matchinfo() buffers
//   - RunCommand for FTS4 maintenance commands (optimize, rebuild, ...)
package fts
