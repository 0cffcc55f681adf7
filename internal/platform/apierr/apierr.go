package apierr

import "fmt"

// Error is what handlers render: an HTTP status, a stable machine code and the
// error whose text is shown to the caller. Fields carries per-field detail for
// validation failures.
type Error struct {
	Status int
	Code   string
	Err    error
	Fields map[string]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithFields attaches field detail and returns e.
func (e *Error) WithFields(fields map[string]string) *Error {
	if e == nil || len(fields) == 0 {
		return e
	}
	e.Fields = fields
	return e
}
