package exceptions

import (
	"errors"
	"fmt"
	"maternity-service/internal/pkg/constvars"
	"runtime"
)

// Kind is the stable error category exposed across the core boundary.
type Kind string

const (
	KindNotFound              Kind = "NotFound"
	KindForbidden             Kind = "Forbidden"
	KindInvalidResourceType   Kind = "InvalidResourceType"
	KindValidationFailed      Kind = "ValidationFailed"
	KindConflict              Kind = "Conflict"
	KindDependencyUnavailable Kind = "DependencyUnavailable"
)

// ForbiddenReason distinguishes authorization denials for audit.
type ForbiddenReason string

const (
	ReasonPermission ForbiddenReason = "permission"
	ReasonOwnership  ForbiddenReason = "ownership"
	ReasonFacility   ForbiddenReason = "facility"
)

type CustomError struct {
	Kind          Kind            `json:"kind"`
	Success       bool            `json:"success"`
	ClientMessage string          `json:"message"`
	DevMessage    string          `json:"dev_message,omitempty"`
	Reason        ForbiddenReason `json:"reason,omitempty"`
	Locations     []Location      `json:"locations,omitempty"`
	cause         error
}

type Location struct {
	File         string `json:"file"`
	Line         int    `json:"line"`
	FunctionName string `json:"function_name"`
}

func (e *CustomError) Error() string {
	if len(e.Locations) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.DevMessage)
	}
	location := e.Locations[0]
	return fmt.Sprintf("%s: %s (%s:%d %s)", e.Kind, e.DevMessage, location.File, location.Line, location.FunctionName)
}

func (e *CustomError) Unwrap() error {
	return e.cause
}

func BuildNewCustomError(err error, kind Kind, clientMessage, devMessage string) *CustomError {
	customErr := &CustomError{
		Kind:          kind,
		ClientMessage: clientMessage,
		DevMessage:    devMessage,
		Locations:     []Location{getLocation(3)},
		cause:         err,
	}
	if err != nil {
		customErr.DevMessage = fmt.Sprintf("%s: %s", devMessage, err.Error())
	}
	return customErr
}

// KindOf reports the kind carried by err. Errors that did not originate from
// this package are treated as an unavailable dependency.
func KindOf(err error) Kind {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Kind
	}
	return KindDependencyUnavailable
}

func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// ReasonOf returns the forbidden sub-cause carried by err, if any.
func ReasonOf(err error) ForbiddenReason {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Reason
	}
	return ""
}

// StatusCodeFor maps a kind to the status code used by the HTTP glue.
func StatusCodeFor(kind Kind) int {
	switch kind {
	case KindNotFound:
		return constvars.StatusNotFound
	case KindForbidden:
		return constvars.StatusForbidden
	case KindInvalidResourceType:
		return constvars.StatusBadRequest
	case KindValidationFailed:
		return constvars.StatusUnprocessableEntity
	case KindConflict:
		return constvars.StatusConflict
	case KindDependencyUnavailable:
		return constvars.StatusServiceUnavailable
	default:
		return constvars.StatusInternalServerError
	}
}

func getLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{
			File:         "unknown",
			Line:         0,
			FunctionName: "unknown",
		}
	}
	function := runtime.FuncForPC(pc).Name()
	return Location{
		File:         file,
		Line:         line,
		FunctionName: function,
	}
}
