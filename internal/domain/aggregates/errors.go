package aggregates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a job store failure. The HTTP layer maps each code to
// one status; workers treat not_modified as a benign poll miss.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeForbidden          ErrorCode = "forbidden"
	CodeConflict           ErrorCode = "conflict"
	CodeNotModified        ErrorCode = "not_modified"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is returned by every aggregate and service operation.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	// Fields maps request field names to what is wrong with them.
	Fields map[string]string
	Cause  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 2)
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return string(e.Code)
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, ": "), e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// FieldError is a validation failure on one request field.
func FieldError(op, field, message string) error {
	return FieldCodeError(CodeValidation, op, field, message, nil)
}

// FieldCodeError attributes a non-validation failure (a duplicate cluster
// index, a label no cluster carries) to the request field that caused it.
func FieldCodeError(code ErrorCode, op, field, message string, cause error) error {
	message = strings.TrimSpace(message)
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: message,
		Fields:  map[string]string{field: message},
		Cause:   cause,
	}
}

// Wrap keeps err as the cause and reuses its text as the message.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsCode reports whether the first *Error in err's chain has code.
func IsCode(err error, code ErrorCode) bool {
	e := asError(err)
	return e != nil && e.Code == code
}

// CodeOf is "" for errors that never passed through an aggregate.
func CodeOf(err error) ErrorCode {
	if e := asError(err); e != nil {
		return e.Code
	}
	return ""
}

func FieldsOf(err error) map[string]string {
	if e := asError(err); e != nil {
		return e.Fields
	}
	return nil
}
