//go:build sqlite_cgo

package store

import (
	_ "github.com/mattn/go-sqlite3" // CGO driver, registered as "sqlite3"; opt in with -tags sqlite_cgo
)

// driverName is overridden by the sqlite_cgo build tag to use the faster
// CGO-backed driver where CGO is available (e.g. the worker's own
// container image, which already links libc for the Docker client).
const driverName = "sqlite3"
