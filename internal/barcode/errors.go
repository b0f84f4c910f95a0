package barcode

import (
	"errors"
	"fmt"
)

// ErrorCode classifies engine failures.
type ErrorCode int

const (
	ErrUnknown               ErrorCode = -10000
	ErrFileNotFound          ErrorCode = -10005
	ErrImageReadFailed       ErrorCode = -10012
	ErrParameterValueInvalid ErrorCode = -10038
	ErrTemplateNameInvalid   ErrorCode = -10036
	ErrJSONParseFailed       ErrorCode = -10030
	ErrJSONTypeInvalid       ErrorCode = -10031
	ErrJSONKeyInvalid        ErrorCode = -10032
	ErrModeArgumentInvalid   ErrorCode = -10033
	ErrPDFReadFailed         ErrorCode = -10021
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnknown:               "unknown error",
	ErrFileNotFound:          "file not found",
	ErrImageReadFailed:       "failed to read the image",
	ErrParameterValueInvalid: "parameter value is invalid or out of range",
	ErrTemplateNameInvalid:   "template name is invalid",
	ErrJSONParseFailed:       "failed to parse the template",
	ErrJSONTypeInvalid:       "template value has the wrong type",
	ErrJSONKeyInvalid:        "template key is invalid",
	ErrModeArgumentInvalid:   "mode argument is invalid",
	ErrPDFReadFailed:         "failed to read the PDF",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int(c))
}

// Error is the error type returned by Reader operations.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("barcode: %s: %v", msg, e.Err)
	}
	return "barcode: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors carrying the same code, so callers can write
// errors.Is(err, &barcode.Error{Code: barcode.ErrFileNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the engine error code carried by err, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}
