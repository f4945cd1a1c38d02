package models

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound   ErrorCode = "not_found"
	CodeForbidden  ErrorCode = "forbidden"
	CodeValidation ErrorCode = "validation"
	CodeConflict   ErrorCode = "conflict"
	CodeInternal   ErrorCode = "internal"
)

// AppError is a structured, caller-facing error. Handlers map its code to an
// HTTP status; everything without a code is treated as an internal error.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *AppError {
	return &AppError{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *AppError {
	return &AppError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the error code, defaulting to CodeInternal for plain errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
