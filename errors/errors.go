package errors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code Code
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Op)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New builds an AppError from a plain message.
func New(code Code, op string, msg string) error {
	return &AppError{Code: code, Op: op, Err: errors.New(msg)}
}

// Newf builds an AppError from a formatted message.
func Newf(code Code, op string, format string, args ...any) error {
	return &AppError{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

func WrapWithCode(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code: code,
		Op:   op,
		Err:  err,
	}
}

// CodeOf extracts the error code, or CodeUnknown for non-app errors.
func CodeOf(err error) Code {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
