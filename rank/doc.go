// Package rank computes relevance scores from SQLite FTS4 matchinfo buffers.
//
// Scores are negated so that ORDER BY score ascending, SQLite's default,
// puts the most relevant rows first.
package rank
