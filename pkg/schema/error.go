package schema

import (
	"errors"
	"fmt"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Code identifies the kind of upload error
type Code string

// Error is returned when a request violates a configured limit or the
// declared file fields. StorageErrors is populated when files persisted
// before the error had to be removed again.
type Error struct {
	Code          Code            `json:"code"`
	Field         string          `json:"field,omitempty"`
	StorageErrors []*StorageError `json:"storageErrors,omitempty"`
}

// StorageError is a failure to remove a persisted file during rollback
type StorageError struct {
	Field string `json:"field"`
	File  *File  `json:"-"`
	Err   error  `json:"-"`
}

// RollbackError wraps a primary error which was not raised by the upload
// itself (decoder, filter or storage error) when files had to be rolled back.
type RollbackError struct {
	Err           error
	StorageErrors []*StorageError
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	CodeLimitPartCount      Code = "LIMIT_PART_COUNT"
	CodeLimitFileSize       Code = "LIMIT_FILE_SIZE"
	CodeLimitFileCount      Code = "LIMIT_FILE_COUNT"
	CodeLimitFieldKey       Code = "LIMIT_FIELD_KEY"
	CodeLimitFieldValue     Code = "LIMIT_FIELD_VALUE"
	CodeLimitFieldCount     Code = "LIMIT_FIELD_COUNT"
	CodeLimitUnexpectedFile Code = "LIMIT_UNEXPECTED_FILE"
)

// Sentinels for use with errors.Is
var (
	ErrLimitPartCount      = &Error{Code: CodeLimitPartCount}
	ErrLimitFileSize       = &Error{Code: CodeLimitFileSize}
	ErrLimitFileCount      = &Error{Code: CodeLimitFileCount}
	ErrLimitFieldKey       = &Error{Code: CodeLimitFieldKey}
	ErrLimitFieldValue     = &Error{Code: CodeLimitFieldValue}
	ErrLimitFieldCount     = &Error{Code: CodeLimitFieldCount}
	ErrLimitUnexpectedFile = &Error{Code: CodeLimitUnexpectedFile}
)

var messages = map[Code]string{
	CodeLimitPartCount:      "Too many parts",
	CodeLimitFileSize:       "File too large",
	CodeLimitFileCount:      "Too many files",
	CodeLimitFieldKey:       "Field name too long",
	CodeLimitFieldValue:     "Field value too long",
	CodeLimitFieldCount:     "Too many fields",
	CodeLimitUnexpectedFile: "Unexpected field",
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewError returns an upload error for a code, with an optional field name
func NewError(code Code, field string) *Error {
	return &Error{Code: code, Field: field}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Message returns the human-readable message for the code
func (c Code) Message() string {
	if msg, exists := messages[c]; exists {
		return msg
	}
	return string(c)
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %q", e.Code.Message(), e.Field)
	}
	return e.Code.Message()
}

// Is matches another *Error with the same code. When the target carries a
// field name, the field must match too.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	if other.Code != e.Code {
		return false
	}
	return other.Field == "" || other.Field == e.Field
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *RollbackError) Error() string {
	return e.Err.Error()
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// StorageErrors returns the rollback removal errors attached to err, or nil
func StorageErrors(err error) []*StorageError {
	var uploadErr *Error
	if errors.As(err, &uploadErr) {
		return uploadErr.StorageErrors
	}
	var rollbackErr *RollbackError
	if errors.As(err, &rollbackErr) {
		return rollbackErr.StorageErrors
	}
	return nil
}

// WithStorageErrors attaches removal errors to a primary error. Upload errors
// carry them directly; any other error is wrapped in a RollbackError.
func WithStorageErrors(err error, errs []*StorageError) error {
	if uploadErr, ok := err.(*Error); ok {
		result := *uploadErr
		result.StorageErrors = errs
		return &result
	}
	return &RollbackError{Err: err, StorageErrors: errs}
}
