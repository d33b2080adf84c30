// Package coreerr defines the uniform error type returned by the storage
// engine and its supporting packages.
//
// Every error that crosses a public API boundary is an [*Error] carrying a
// stable [Code], the operation that failed, and whatever ID/Path context was
// available at the point of failure. Callers should match on [Code] with
// [errors.Is] via the [Error.Is] implementation, or unwrap to inspect the
// underlying cause.
package coreerr

import (
	"errors"
	"strings"
)

// Code is a stable short identifier for a class of failure.
//
// Codes are part of the public contract: the RPC adapter layer and any
// remote caller match on Code, not on message text, so these strings must
// not change once released.
type Code string

const (
	// CodeNotInitialized means the store directory or manifest is missing.
	CodeNotInitialized Code = "NOT_INITIALIZED"

	// CodeSchemaNotFound means the requested type has no registered schema.
	CodeSchemaNotFound Code = "SCHEMA_NOT_FOUND"

	// CodeSchemaInvalid means a type config file failed to parse or
	// violates the schema model's own constraints.
	CodeSchemaInvalid Code = "SCHEMA_INVALID"

	// CodeFeatureDisabled means an operation was attempted against a
	// schema feature the type does not enable (e.g. move on a type
	// with Features.Move == false).
	CodeFeatureDisabled Code = "FEATURE_DISABLED"

	// CodeValidationFieldRequired means a required field was missing.
	CodeValidationFieldRequired Code = "VALIDATION_FIELD_REQUIRED"

	// CodeValidationFieldType means a field's value did not match its
	// declared type.
	CodeValidationFieldType Code = "VALIDATION_FIELD_TYPE"

	// CodeValidationStatus means a status value is not one of the type's
	// declared statuses.
	CodeValidationStatus Code = "VALIDATION_STATUS"

	// CodeValidationPriority means a priority value is out of range.
	CodeValidationPriority Code = "VALIDATION_PRIORITY"

	// CodeValidationEnum means an enum field's value is not one of its
	// declared options.
	CodeValidationEnum Code = "VALIDATION_ENUM"

	// CodeItemNotFound means the requested record does not exist.
	CodeItemNotFound Code = "ITEM_NOT_FOUND"

	// CodeIDConflict means a requested ID or slug is already in use.
	CodeIDConflict Code = "ID_CONFLICT"

	// CodeNotDeleted means a restore was attempted on a record that is
	// not currently soft-deleted.
	CodeNotDeleted Code = "NOT_DELETED"

	// CodeFilterInvalid means a query filter expression is malformed.
	CodeFilterInvalid Code = "FILTER_INVALID"

	// CodeFrontmatterMalformed means a record file's frontmatter could
	// not be parsed.
	CodeFrontmatterMalformed Code = "FRONTMATTER_MALFORMED"

	// CodeIOReadFailed means a filesystem read failed for a reason other
	// than "not found".
	CodeIOReadFailed Code = "IO_READ_FAILED"

	// CodeIOWriteFailed means a filesystem write failed.
	CodeIOWriteFailed Code = "IO_WRITE_FAILED"

	// CodeIODeleteFailed means a filesystem delete failed.
	CodeIODeleteFailed Code = "IO_DELETE_FAILED"

	// CodeMovePartial means a move or duplicate partially completed: the
	// record was written to its destination but cleanup of the source
	// (or some secondary step) failed. Non-fatal; callers should inspect
	// the result and may need to follow up manually.
	CodeMovePartial Code = "MOVE_PARTIAL"
)

// Error is the uniform error type returned by all public core APIs.
//
// Provides a stable Code plus structured record context (ID, Path)
// appended to the error message. The underlying cause appears first,
// followed by context:
//
//	read docs/foo.md: permission denied (code=IO_READ_FAILED id=abc123 path=docs/foo.md)
//
// Use [errors.As] to extract structured fields:
//
//	var cErr *coreerr.Error
//	if errors.As(err, &cErr) {
//	    fmt.Println(cErr.Code, cErr.ID, cErr.Path)
//	}
//
// Use [errors.Is] with a bare Code value to check the error class:
//
//	if errors.Is(err, coreerr.CodeItemNotFound) { ... }
type Error struct {
	// Code identifies the class of failure. Never empty on a
	// fully-constructed Error.
	Code Code

	// Op names the operation that failed, e.g. "store.Create".
	Op string

	// ID is the record identifier, when known.
	ID string

	// Path is the record's path relative to the project root, when known.
	Path string

	// Err is the underlying cause. May be nil if Code alone is sufficient.
	Err error
}

// Error formats as "<op>: <cause> (code=X id=Y path=Z)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(string(e.Code))
	}

	if suffix := e.suffix(); suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}

	return b.String()
}

// suffix builds the "(code=X id=Y path=Z)" portion.
func (e *Error) suffix() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, "code="+string(e.Code))
	}

	if e.ID != "" {
		parts = append(parts, "id="+e.ID)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// Is reports whether target is a bare Code value matching e.Code, so that
// callers can write errors.Is(err, coreerr.CodeItemNotFound) without a type
// assertion.
func (e *Error) Is(target error) bool {
	code, ok := target.(Code)
	if !ok {
		return false
	}

	return e.Code == code
}

// Error satisfies the error interface for Code so that a bare Code can be
// used as the target of [errors.Is] (see [Error.Is]) or, less commonly,
// returned directly.
func (c Code) Error() string {
	return string(c)
}

// Opt configures an [*Error] during construction via [New] or [Wrap].
type Opt func(*Error)

// WithID attaches a record ID to the error.
func WithID(id string) Opt {
	return func(e *Error) { e.ID = id }
}

// WithPath attaches a record's project-relative path to the error.
func WithPath(path string) Opt {
	return func(e *Error) { e.Path = path }
}

// New constructs an [*Error] with the given code and operation name and no
// underlying cause.
func New(code Code, op string, opts ...Opt) *Error {
	e := &Error{Code: code, Op: op}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// IsNotFound reports whether err is a [*Error] whose code is
// [CodeItemNotFound] or [CodeSchemaNotFound].
func IsNotFound(err error) bool {
	return errors.Is(err, CodeItemNotFound) || errors.Is(err, CodeSchemaNotFound)
}

// IsValidation reports whether err is a [*Error] from the validation family
// (field, status, priority, or enum).
func IsValidation(err error) bool {
	return errors.Is(err, CodeValidationFieldRequired) ||
		errors.Is(err, CodeValidationFieldType) ||
		errors.Is(err, CodeValidationStatus) ||
		errors.Is(err, CodeValidationPriority) ||
		errors.Is(err, CodeValidationEnum)
}

// IsConflict reports whether err is a [*Error] whose code is [CodeIDConflict].
func IsConflict(err error) bool {
	return errors.Is(err, CodeIDConflict)
}

// Wrap attaches code, op, and context to an underlying error.
//
// Returns nil if err is nil. If err is already an [*Error], its Code is
// always kept (code is used only when the existing Code is empty), its ID,
// Path and cause carry over, and Op is replaced by op - callers that
// want to override the code should use [New] with [Opt] functions instead,
// or reach into the returned *Error directly.
func Wrap(err error, code Code, op string, opts ...Opt) error {
	if err == nil {
		return nil
	}

	existing := &Error{}
	if errors.As(err, &existing) {
		e := &Error{Code: existing.Code, Op: op, ID: existing.ID, Path: existing.Path, Err: existing.Err}
		if e.Code == "" {
			e.Code = code
		}

		for _, opt := range opts {
			opt(e)
		}

		return e
	}

	e := &Error{Code: code, Op: op, Err: err}
	for _, opt := range opts {
		opt(e)
	}

	return e
}
