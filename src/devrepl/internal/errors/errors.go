package errors

import stderr "errors"

// New returns an error that formats as the given text.
// Each call to New returns a distinct error value even if the text is identical.
func New(msg string) error {
	return stderr.New(msg)
}

// As is a passthrough to the standard library's errors.As.
func As(err error, target any) bool {
	return stderr.As(err, target)
}

// Is is a passthrough to the standard library's errors.Is.
func Is(err, target error) bool {
	return stderr.Is(err, target)
}

var (
	// NoSessionOnWireError reports that the request did not carry a usable session id.
	NoSessionOnWireError = New("session is required")
	// NoCodeOnWireError reports that the request is missing its code payload.
	NoCodeOnWireError = New("code is required")
	// NoNameOnWireError reports that a snapshot request is missing its name.
	NoNameOnWireError = New("name is required")
	// NoExprOnWireError reports that a snapshot request is missing the expression to capture.
	NoExprOnWireError = New("expr is required")
	// NoTypeOnWireError reports that a materialize request is missing the target type.
	NoTypeOnWireError = New("type is required")
	// ErrNoContextBound is returned by container operations before a container reference is bound.
	ErrNoContextBound = New("no context bound")
	// ErrRedefinitionUnsupported reports that the type space cannot redefine types in place.
	ErrRedefinitionUnsupported = New("type redefinition is not supported by this process")
	// ErrEngineClosed is returned when evaluating against a closed engine.
	ErrEngineClosed = New("evaluation engine is closed")
)

// IsBadRequest reports whether the error is a bad request from the caller.
func IsBadRequest(e error) bool {
	return stderr.Is(e, NoSessionOnWireError) ||
		stderr.Is(e, NoCodeOnWireError) ||
		stderr.Is(e, NoNameOnWireError) ||
		stderr.Is(e, NoExprOnWireError) ||
		stderr.Is(e, NoTypeOnWireError)
}
