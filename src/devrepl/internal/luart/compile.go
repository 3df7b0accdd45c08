package luart

import (
	"context"
	stderr "errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// FaultKind classifies a failed compilation or execution.
type FaultKind string

const (
	// FaultSyntax is reported for source that does not parse or compile.
	FaultSyntax FaultKind = "SyntaxError"
	// FaultRuntime is reported for errors raised while running compiled code.
	FaultRuntime FaultKind = "RuntimeError"
	// FaultTimeout is reported when the evaluation context expired mid-run.
	FaultTimeout FaultKind = "Timeout"
	// FaultPanic is reported when the interpreter panicked.
	FaultPanic FaultKind = "Panic"
)

// Fault describes a compile or runtime failure in terms a REPL user can act on.
type Fault struct {
	Kind    FaultKind
	Line    int
	Message string
}

// Error is an implementation of the error interface.
func (f *Fault) Error() string {
	if f.Kind == FaultSyntax {
		if f.Line > 0 {
			return fmt.Sprintf("line %d: %s", f.Line, f.Message)
		}
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Diagnostic returns the fault as a REPL diagnostic line.
func (f *Fault) Diagnostic() string {
	return "! " + f.Error()
}

// Compile parses and compiles source into a function prototype. Failures are returned as *Fault.
func Compile(source, chunkName string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(source), chunkName)
	if err != nil {
		return nil, syntaxFault(err)
	}
	proto, err := lua.Compile(chunk, chunkName)
	if err != nil {
		return nil, syntaxFault(err)
	}
	return proto, nil
}

// CompileExpression compiles source as the operand of a return statement.
func CompileExpression(source, chunkName string) (*lua.FunctionProto, error) {
	return Compile("return "+source, chunkName)
}

func syntaxFault(err error) *Fault {
	var pe *parse.Error
	if stderr.As(err, &pe) {
		msg := strings.TrimSpace(pe.Message)
		if pe.Token != "" {
			msg = fmt.Sprintf("%s near '%s'", msg, pe.Token)
		}
		line := pe.Pos.Line
		if line < 0 {
			line = 0
			msg += " at end of input"
		}
		return &Fault{Kind: FaultSyntax, Line: line, Message: msg}
	}
	var ce *lua.CompileError
	if stderr.As(err, &ce) {
		return &Fault{Kind: FaultSyntax, Line: ce.Line, Message: ce.Message}
	}
	return &Fault{Kind: FaultSyntax, Message: strings.TrimSpace(err.Error())}
}

// ClassifyRuntime converts an error returned from a protected call into a *Fault.
// ctx is the evaluation context, consulted to tell timeouts apart from ordinary errors.
func ClassifyRuntime(ctx context.Context, err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if stderr.As(err, &f) {
		return f
	}
	if ctx != nil && ctx.Err() != nil {
		return &Fault{Kind: FaultTimeout, Message: ctx.Err().Error()}
	}

	var ae *lua.ApiError
	if stderr.As(err, &ae) {
		msg := ""
		if ae.Object != nil {
			msg = ae.Object.String()
		}
		switch ae.Type {
		case lua.ApiErrorSyntax:
			return &Fault{Kind: FaultSyntax, Message: msg}
		case lua.ApiErrorPanic:
			return &Fault{Kind: FaultPanic, Message: msg}
		default:
			return &Fault{Kind: FaultRuntime, Message: msg}
		}
	}
	return &Fault{Kind: FaultRuntime, Message: err.Error()}
}
