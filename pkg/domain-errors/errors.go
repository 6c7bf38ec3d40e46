// Package domainerrors defines the closed set of error codes the engine
// surfaces to callers. Infrastructure layers return sentinel errors; services
// translate them into these typed values at the boundary so transports can map
// them to status codes without string matching.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies a category of caller-visible failure.
type Code string

const (
	// CodeUnauthorized covers role or ownership mismatches.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidStateTransition covers stale or malformed lifecycle requests.
	CodeInvalidStateTransition Code = "invalid_state_transition"
	// CodeNotFound covers missing records.
	CodeNotFound Code = "not_found"
	// CodeMissingRemarks covers reject/hold decisions filed without a reason.
	CodeMissingRemarks Code = "missing_remarks"
	// CodeConflict covers concurrent modification (compare-and-set misses).
	CodeConflict Code = "conflict"
	// CodeInvalidInput covers malformed requests caught before domain logic.
	CodeInvalidInput Code = "invalid_input"
	// CodeInternal covers everything the caller cannot act on.
	CodeInternal Code = "internal"
)

// Error carries a code plus a human-readable message. All engine failures are
// local, non-retryable user errors; none are fatal to the process.
type Error struct {
	Code    Code
	Message string
}

func (e Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a typed domain error.
func New(code Code, message string) Error {
	return Error{Code: code, Message: message}
}

// CodeOf extracts the domain code from err, or CodeInternal when err is not a
// domain error.
func CodeOf(err error) Code {
	var de Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// ToHTTPStatus maps a code to the HTTP status transports should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidStateTransition, CodeConflict:
		return http.StatusConflict
	case CodeMissingRemarks, CodeInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
