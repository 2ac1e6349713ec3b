// Package apperrors provides the coded error type shared by the lookup and
// completion collaborators.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeCodelistNotFound       ErrorCode = "CODELIST_NOT_FOUND"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidStandard        ErrorCode = "INVALID_STANDARD"
	ErrCodeVersionUnresolved      ErrorCode = "VERSION_UNRESOLVED"
	ErrCodeLibraryRequestFailed   ErrorCode = "LIBRARY_REQUEST_FAILED"
	ErrCodeModelRequestFailed     ErrorCode = "MODEL_REQUEST_FAILED"
	ErrCodeModelResponseMalformed ErrorCode = "MODEL_RESPONSE_MALFORMED"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
)

// Error is a coded application error. Message is safe to show to users.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around err.
func Wrap(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFound reports whether err means the requested codelist does not exist.
func IsNotFound(err error) bool {
	return Is(err, ErrCodeCodelistNotFound)
}

// UserMessage turns err into the sentence shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrCodeCodelistNotFound, ErrCodeInvalidInput, ErrCodeInvalidStandard:
			return appErr.Message
		}
		if appErr.Err != nil {
			return fmt.Sprintf("Error: %s: %v", appErr.Message, appErr.Err)
		}
		return "Error: " + appErr.Message
	}
	return "Error: " + err.Error()
}
