//go:build !sqlite_cgo

package store

// driverName selects the pure-Go modernc.org/sqlite driver by default, so the
// module builds without CGO. Build with -tags sqlite_cgo to switch to
// mattn/go-sqlite3 instead.
const driverName = "sqlite"
