// Package errs defines the closed error taxonomy used throughout the
// symbol graph engine. Every kind carries a stable tag so callers can
// errors.As/errors.Is against it instead of matching on strings.
package errs

import (
	"fmt"
	"time"
)

// Kind identifies which taxonomy bucket an error belongs to.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindDuplicateId       Kind = "duplicate_id"
	KindStaleHandle       Kind = "stale_handle"
	KindStorageIo         Kind = "storage_io"
	KindStorageCorrupt    Kind = "storage_corrupt"
	KindVersionMismatch   Kind = "version_mismatch"
	KindExtractError      Kind = "extract_error"
	KindChangeDetectError Kind = "change_detect_error"
	KindCancelled         Kind = "cancelled"
	KindCasExhausted      Kind = "cas_exhausted"
	KindInvariant         Kind = "invariant"
)

// Error is the common shape for every taxonomy member: a kind, a short
// cause, an optional underlying error, and a timestamp for
// client-visible diagnostics.
type Error struct {
	Kind       Kind
	Op         string
	Cause      string
	Underlying error
	At         time.Time
}

// New constructs an Error of the given kind.
func New(kind Kind, op, cause string) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause, At: time.Now()}
}

// Wrap constructs an Error of the given kind around an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Cause: err.Error(), Underlying: err, At: time.Now()}
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Underlying)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Cause)
}

// Unwrap supports errors.Is/errors.As against the underlying error.
func (e *Error) Unwrap() error { return e.Underlying }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, errs.New(errs.KindNotFound, "", "")) style checks work
// without comparing Op/Cause/Underlying.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// Sentinel constructors for the common call sites.

func NotFound(op, cause string) *Error  { return New(KindNotFound, op, cause) }
func DuplicateId(op, id string) *Error  { return New(KindDuplicateId, op, "duplicate id "+id) }
func StaleHandle(op string) *Error      { return New(KindStaleHandle, op, "handle refers to a removed vertex") }
func Cancelled(op string) *Error        { return New(KindCancelled, op, "operation cancelled") }
func CasExhausted(op string) *Error     { return New(KindCasExhausted, op, "retry budget exceeded") }
func Invariant(op, cause string) *Error { return New(KindInvariant, op, cause) }

func StorageIo(op string, err error) *Error    { return Wrap(KindStorageIo, op, err) }
func StorageCorrupt(op, cause string) *Error   { return New(KindStorageCorrupt, op, cause) }
func VersionMismatch(op, cause string) *Error  { return New(KindVersionMismatch, op, cause) }
func ExtractError(op string, err error) *Error { return Wrap(KindExtractError, op, err) }
func ChangeDetect(op string, err error) *Error { return Wrap(KindChangeDetectError, op, err) }

// MultiError aggregates several errors, e.g. per-file extractor
// failures collected across a batch.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nils and returns nil if nothing remains.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred, first: %v", len(m.Errors), m.Errors[0])
}

func (m *MultiError) Unwrap() []error { return m.Errors }
