// Package entity contains the domain types of the devrepl bridge.
package entity

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

type keyType string

// SessionContextKey indicates the key to be used to identify the session UUID in the context.
const SessionContextKey keyType = "SessionUUID"

// ConnectionContextKey indicates the key to be used to identify the connection UUID in the context.
const ConnectionContextKey keyType = "ConnectionUUID"

// Engine is the per-session evaluation state.
type Engine interface {
	// Evaluate runs source in the session and returns its rendered results.
	Evaluate(ctx context.Context, source string) (*EvalResult, error)
	// Imports returns the remembered import lines in the order they were added.
	Imports() []string
	// AddImports remembers and binds import lines, returning the current import set and a
	// diagnostic line for each import that could not be resolved yet.
	AddImports(ctx context.Context, imports []string) (current []string, diagnostics []string)
	// Value evaluates a single expression in the session and returns its Go form.
	Value(ctx context.Context, expr string) (any, error)
	// Bind assigns a session global.
	Bind(name string, value any) error
	// Close releases the interpreter. Evaluate fails afterwards.
	Close()
}

// Session is a client-scoped evaluation context.
type Session struct {
	UUID         uuid.UUID `json:"uuid" zap:"uuid"`
	ConnectionID uuid.UUID `json:"connectionID" zap:"connectionID"`
	Engine       Engine    `json:"-" zap:"-"`
	CreatedAt    time.Time `json:"createdAt" zap:"createdAt"`
}

// EvalResult is the outcome of evaluating one submission in a session.
type EvalResult struct {
	// Values holds rendered results in production order.
	Values []string
	// Out is the captured console output.
	Out string
	// Diagnostics holds one line per compile error, runtime fault or unresolved import.
	Diagnostics []string
	// Imports is the remembered import set after the call.
	Imports []string
	// Message is set for calls that only updated imports.
	Message string
}

// OnceResult is the outcome of a stateless one-shot evaluation.
type OnceResult struct {
	// Value is the Go form of the result: host values are unwrapped, tables become maps or slices.
	Value any
	// Rendered is the display form of the result.
	Rendered string
	// Diagnostic is set when compilation or execution failed.
	Diagnostic string
}

// OK reports whether the evaluation succeeded.
func (r *OnceResult) OK() bool {
	return r.Diagnostic == ""
}

// HotPatchResult is the outcome of a hot-patch request.
type HotPatchResult struct {
	Success bool
	Message string
	Error   string
	Updated []string
	Skipped []string
}

// BindResult is the outcome of a context bind attempt.
type BindResult struct {
	Bound    bool
	Strategy string
	Message  string
}
