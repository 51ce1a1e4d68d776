// Package driver provides the SQLite connector behind analystdb stores.
// It wraps modernc.org/sqlite so every physical connection is opened with the
// configured pragmas before database/sql hands it out.
package driver
