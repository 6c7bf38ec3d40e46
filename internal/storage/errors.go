package storage

import "errors"

// Sentinel errors for storage facts. Services translate these into domain
// errors at the boundary.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("version conflict")
	ErrExists   = errors.New("record already exists")
)
