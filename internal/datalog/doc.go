// Package datalog owns the on-disk reading log: the append-only full log and
// the bounded snapshot derived from it.
//
// Rows are written as comma-joined values with no header and no escaping, one
// row per line. A value containing a comma or newline shifts the columns of
// its row; the format is kept as-is because downstream consumers read it
// positionally.
//
// The tail reader walks a file backwards in fixed-size chunks so producing the
// last N rows costs memory proportional to N and the chunk size, not to the
// size of the log.
package datalog
