package evaluator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/luart"
	lua "github.com/yuin/gopher-lua"
)

const _msgImportsUpdated = "Imports updated."

// engine is the stateful evaluation context of one session. Globals, functions and imports
// persist in its Lua state until the engine is closed.
type engine struct {
	ev *evaluator

	mu       sync.Mutex
	closed   bool
	L        *lua.LState
	out      bytes.Buffer
	imports  []string
	resolved map[string]bool
}

var _ entity.Engine = (*engine)(nil)

func (e *engine) Evaluate(ctx context.Context, source string) (*entity.EvalResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.ErrEngineClosed
	}
	defer e.ev.stats.Timer(_timerLatency).Start().Stop()

	e.out.Reset()
	res := &entity.EvalResult{}

	added, payload := splitImports(source)
	res.Diagnostics = append(res.Diagnostics, e.remember(added)...)
	e.ev.refreshContext(e.L)

	if strings.TrimSpace(payload) == "" {
		res.Imports = e.importsLocked()
		res.Message = _msgImportsUpdated
		return res, nil
	}

	runCtx, cancel := e.ev.runContext(ctx)
	defer cancel()
	e.L.SetContext(runCtx)
	defer e.L.RemoveContext()

	for _, unit := range e.units(payload) {
		values, diag := e.runUnit(runCtx, unit)
		res.Values = append(res.Values, values...)
		if diag != "" {
			res.Diagnostics = append(res.Diagnostics, diag)
			e.ev.stats.Counter(_counterFault).Inc(1)
		}
	}

	res.Out = e.out.String()
	res.Imports = e.importsLocked()
	return res, nil
}

// units splits payload by the last-line rule. A setup unit that does not compile on its own
// means the split cut through a construct, so the payload runs whole.
func (e *engine) units(payload string) []string {
	units := splitUnits(payload)
	if len(units) < 2 {
		return units
	}
	if _, err := luart.Compile(units[0], _chunkEval); err != nil {
		return []string{strings.TrimSpace(payload)}
	}
	return units
}

// runUnit executes one unit and returns its rendered values, or a diagnostic line.
func (e *engine) runUnit(ctx context.Context, unit string) ([]string, string) {
	proto, err := luart.CompileExpression(unit, _chunkEval)
	if err != nil {
		proto, err = luart.Compile(unit, _chunkEval)
		if err != nil {
			return nil, diagnostic(ctx, err)
		}
	}

	results, err := luart.Call(e.L, e.L.NewFunctionFromProto(proto))
	if err != nil {
		return nil, diagnostic(ctx, err)
	}

	values := make([]string, 0, len(results))
	for _, r := range results {
		values = append(values, luart.Render(e.L, r))
	}
	if name, ok := assignedName(unit); ok && len(values) == 0 {
		values = append(values, luart.Render(e.L, e.L.GetGlobal(name)))
	}
	return values, ""
}

func (e *engine) Value(ctx context.Context, expr string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.ErrEngineClosed
	}
	if strings.TrimSpace(expr) == "" {
		return nil, errors.NoExprOnWireError
	}
	e.ev.refreshContext(e.L)

	runCtx, cancel := e.ev.runContext(ctx)
	defer cancel()
	e.L.SetContext(runCtx)
	defer e.L.RemoveContext()

	proto, err := luart.CompileExpression(expr, _chunkEval)
	if err != nil {
		return nil, err
	}
	results, err := luart.Call(e.L, e.L.NewFunctionFromProto(proto))
	if err != nil {
		return nil, luart.ClassifyRuntime(runCtx, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return luart.ToGo(results[0]), nil
}

func (e *engine) Imports() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importsLocked()
}

func (e *engine) AddImports(ctx context.Context, imports []string) ([]string, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		normalized []string
		diags      []string
	)
	for _, raw := range imports {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		imp, ok := normalizeImport(strings.TrimSuffix(raw, ";"))
		if !ok {
			diags = append(diags, "! invalid import: "+raw)
			continue
		}
		normalized = append(normalized, imp)
	}
	if e.closed {
		return e.importsLocked(), append(diags, "! "+errors.ErrEngineClosed.Error())
	}
	diags = append(diags, e.remember(normalized)...)
	return e.importsLocked(), diags
}

// remember merges imports into the remembered set and tries to bind every unresolved one.
// Only imports added by this call are reported when they stay unresolved.
func (e *engine) remember(imports []string) []string {
	added := map[string]bool{}
	for _, imp := range imports {
		if !e.known(imp) {
			e.imports = append(e.imports, imp)
			added[imp] = true
		}
	}

	var diags []string
	for _, imp := range e.imports {
		if e.resolved[imp] {
			continue
		}
		if e.ev.resolveImport(e.L, e.ev.space, imp) {
			e.resolved[imp] = true
			continue
		}
		if added[imp] {
			diags = append(diags, "! unresolved import: "+strings.TrimPrefix(imp, _importKeyword+" "))
		}
	}
	return diags
}

func (e *engine) known(imp string) bool {
	for _, have := range e.imports {
		if have == imp {
			return true
		}
	}
	return false
}

func (e *engine) importsLocked() []string {
	return append([]string{}, e.imports...)
}

func (e *engine) Bind(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.ErrEngineClosed
	}
	if name == "" || _identifier.FindString(name) != name || _statementKeywords[name] {
		return fmt.Errorf("invalid binding name %q", name)
	}
	e.L.SetGlobal(name, luart.ToLua(e.L, value))
	return nil
}

func (e *engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}
