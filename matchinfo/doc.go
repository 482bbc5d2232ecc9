// Package matchinfo decodes the BLOB returned by the SQLite FTS4 matchinfo()
// auxiliary function and annotates it under a matchinfo format string.
//
// The buffer carries no length or type tags: its layout is implied entirely
// by the format string the query passed to matchinfo(). Decode turns the raw
// bytes into 32-bit words; Annotate walks a format string and groups those
// words into named values:
//
//	p  number of matchable phrases in the query
//	c  number of user defined columns
//	x  hits per phrase/column (this row, all rows, rows with hits)
//	y  usable phrase matches per phrase/column
//	b  per-phrase column bitfield
//	n  number of rows in the table
//	a  average tokens per column
//	l  tokens per column in the current row
//	s  longest matching phrase subsequence per column
//
// Fields x, y and b need p and c earlier in the same format string; a, l and
// s need c. A field whose prerequisites are missing yields a Group carrying an
// *OrderError instead of a value, and annotation carries on with the next
// character.
package matchinfo
