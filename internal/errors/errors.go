package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusTransport is the status given to failures that never produced an
// upstream HTTP status: the connection failed, timed out, or the body could
// not be decoded.
const StatusTransport = 600

// Error represents a status-bearing error shared by the fetcher, the
// scheduler and the HTTP surface.
type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message())
	}
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.Message(), e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the text of the wrapped error, or an empty string.
func (e *Error) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Message: e.Message(),
		Details: e.Details,
		Status:  e.Status,
	})
}

// E builds an [Error] from its arguments: a string or error becomes the
// wrapped error, an int the status, and any Detail values are appended.
//
// The status defaults to 500.
func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// StatusOf reports the status carried by err. Errors that are not an
// [Error] are treated as transport failures.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return StatusTransport
}
