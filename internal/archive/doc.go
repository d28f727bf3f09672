// Package archive mirrors polled readings into a SQLite database.
//
// The text log stays the source of truth; the archive stores one row per
// signal so readings can be summarized without scanning the log. Failed
// fetches are kept with failed=1 and the sentinel as their value.
package archive
