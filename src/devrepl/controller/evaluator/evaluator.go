// Package evaluator turns submitted Lua source into executed units inside the host process,
// either in a stateful per-session engine or as a stateless one-shot evaluation.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/internal/luart"
	"github.com/uber/devrepl/src/devrepl/internal/typespace"
	"github.com/uber/devrepl/src/devrepl/repository/snapshot"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyDefaultImports = "eval.defaultImports"
	_configKeyTimeoutMillis  = "eval.timeoutMillis"

	_chunkEval = "eval"
	_chunkOnce = "once"

	_entryMethod = "run"

	_timerLatency = "eval_latency"
	_counterFault = "eval_faults"
)

// Evaluator creates session engines and runs stateless one-shot evaluations.
type Evaluator interface {
	// NewEngine returns a fresh engine with the default imports applied.
	NewEngine(ctx context.Context) (entity.Engine, error)
	// EvaluateOnce runs source in a throwaway state and type layer. Failures are reported in
	// the result, never returned.
	EvaluateOnce(ctx context.Context, source string) *entity.OnceResult
	// Materialize builds a new instance of typeName from a JSON object.
	Materialize(ctx context.Context, typeName string, payload string) (any, error)
}

// Params are inbound parameters to initialize a new evaluator.
type Params struct {
	fx.In

	Config    config.Provider
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	Registry  hostctx.Registry
	Space     *typespace.Space
	Snapshots snapshot.Repository
}

type evaluator struct {
	defaultImports []string
	timeout        time.Duration
	logger         *zap.SugaredLogger
	stats          tally.Scope
	registry       hostctx.Registry
	space          *typespace.Space
	snapshots      snapshot.Repository
	modules        map[string]luart.Module
}

// New constructs the evaluator.
func New(p Params) (Evaluator, error) {
	var defaults []string
	if err := p.Config.Get(_configKeyDefaultImports).Populate(&defaults); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyDefaultImports, err)
	}
	var timeoutMillis int64
	if err := p.Config.Get(_configKeyTimeoutMillis).Populate(&timeoutMillis); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyTimeoutMillis, err)
	}

	ev := &evaluator{
		timeout:   time.Duration(timeoutMillis) * time.Millisecond,
		logger:    p.Logger,
		stats:     p.Stats,
		registry:  p.Registry,
		space:     p.Space,
		snapshots: p.Snapshots,
		modules:   map[string]luart.Module{},
	}
	for _, d := range defaults {
		imp, ok := normalizeImport(d)
		if !ok {
			return nil, fmt.Errorf("invalid default import %q", d)
		}
		ev.defaultImports = append(ev.defaultImports, imp)
	}
	for _, m := range append(luart.Builtins(), ev.snapshotModule()) {
		ev.modules[m.Name] = m
	}
	return ev, nil
}

func (ev *evaluator) NewEngine(ctx context.Context) (entity.Engine, error) {
	e := &engine{
		ev:       ev,
		L:        luart.NewState(),
		resolved: map[string]bool{},
	}
	luart.RedirectPrint(e.L, func() io.Writer { return &e.out })
	ev.installHostGlobals(e.L, ev.space)

	_, diags := e.AddImports(ctx, ev.defaultImports)
	if len(diags) > 0 {
		ev.logger.Warnw("default imports not resolved yet", "diagnostics", diags)
	}
	return e, nil
}

func (ev *evaluator) EvaluateOnce(ctx context.Context, source string) *entity.OnceResult {
	L := luart.NewState()
	defer L.Close()
	layer := ev.space.NewLayer()

	var out strings.Builder
	luart.RedirectPrint(L, func() io.Writer { return &out })
	ev.installHostGlobals(L, layer)

	imports, payload := splitImports(source)
	for _, imp := range imports {
		if !ev.resolveImport(L, layer, imp) {
			return &entity.OnceResult{Diagnostic: "! unresolved import: " + strings.TrimPrefix(imp, _importKeyword+" ")}
		}
	}
	if strings.TrimSpace(payload) == "" {
		return &entity.OnceResult{Diagnostic: "! nothing to evaluate"}
	}

	runCtx, cancel := ev.runContext(ctx)
	defer cancel()
	L.SetContext(runCtx)
	defer L.RemoveContext()

	var (
		values []lua.LValue
		err    error
	)
	if _, ok := typespace.PrimaryName(payload); ok {
		values, err = ev.runDeclaredType(runCtx, L, layer, payload)
	} else {
		values, err = runChunk(L, payload, _chunkOnce)
	}
	if err != nil {
		return &entity.OnceResult{Diagnostic: diagnostic(runCtx, err)}
	}

	res := &entity.OnceResult{Rendered: "nil"}
	if len(values) > 0 {
		res.Value = luart.ToGo(values[0])
		res.Rendered = luart.Render(L, values[0])
	}
	return res
}

// runDeclaredType loads the declared types into layer, creates an instance of the primary type
// and invokes its entry method.
func (ev *evaluator) runDeclaredType(ctx context.Context, L *lua.LState, layer *typespace.Space, source string) ([]lua.LValue, error) {
	primary, _ := typespace.PrimaryName(source)
	artifacts, err := typespace.Compile(ctx, _chunkOnce, source)
	if err != nil {
		return nil, err
	}
	if err := layer.Load(artifacts); err != nil {
		return nil, err
	}
	t, ok := layer.Lookup(primary)
	if !ok {
		return nil, &errors.TypeNotFoundError{Name: primary}
	}
	run, ok := t.Method(_entryMethod)
	if !ok {
		return nil, fmt.Errorf("type %s has no %s method", primary, _entryMethod)
	}
	obj, err := layer.New(primary, nil)
	if err != nil {
		return nil, err
	}
	return luart.Call(L, L.NewFunctionFromProto(run), obj.LuaValue(L))
}

func (ev *evaluator) Materialize(ctx context.Context, typeName string, payload string) (any, error) {
	if typeName == "" {
		return nil, errors.NoTypeOnWireError
	}
	doc := gjson.Parse(payload)
	if !doc.IsObject() {
		return nil, fmt.Errorf("materializing %s: payload is not a JSON object", typeName)
	}
	t, err := ev.space.Require(typeName)
	if err != nil {
		return nil, err
	}

	L := luart.NewState()
	defer L.Close()
	h := typespace.NewHandle(ev.space, t)

	if t.Kind() == typespace.KindNative {
		lv, err := h.Construct(L, lua.LNil)
		if err != nil {
			return nil, err
		}
		v := luart.ToGo(lv)
		if err := json.Unmarshal([]byte(payload), v); err != nil {
			return nil, fmt.Errorf("materializing %s: %w", typeName, err)
		}
		return v, nil
	}

	lv, err := h.Construct(L, jsonToLua(L, doc))
	if err != nil {
		return nil, err
	}
	return luart.ToGo(lv), nil
}

// installHostGlobals binds the container accessors and the type construction helpers.
func (ev *evaluator) installHostGlobals(L *lua.LState, space *typespace.Space) {
	space.Install(L)
	ev.refreshContext(L)

	L.SetGlobal("component", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		container := ev.registry.Get()
		if container == nil {
			L.RaiseError("%s", errors.ErrNoContextBound.Error())
			return 0
		}
		c, err := hostctx.Component(container, name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(luart.ToLua(L, c))
		return 1
	}))
	L.SetGlobal("components", L.NewFunction(func(L *lua.LState) int {
		container := ev.registry.Get()
		if container == nil {
			L.RaiseError("%s", errors.ErrNoContextBound.Error())
			return 0
		}
		names, err := hostctx.ComponentNames(container)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		tbl := L.CreateTable(len(names), 0)
		for _, n := range names {
			tbl.Append(lua.LString(n))
		}
		L.Push(tbl)
		return 1
	}))
}

// refreshContext points the ctx global at the currently bound container.
func (ev *evaluator) refreshContext(L *lua.LState) {
	L.SetGlobal("ctx", luart.ToLua(L, ev.registry.Get()))
}

// resolveImport binds an import into L. Built-in modules win over the container loader, which
// wins over types of space.
func (ev *evaluator) resolveImport(L *lua.LState, space *typespace.Space, imp string) bool {
	path, alias := parseImport(imp)
	if path == "" {
		return false
	}

	if m, ok := ev.modules[path]; ok {
		L.SetGlobal(alias, m.Table(L))
		return true
	}

	if container := ev.registry.Get(); container != nil {
		v, ok, err := hostctx.Resolve(container, path)
		if err != nil {
			ev.logger.Debugw("container loader cannot resolve import", "import", path, zap.Error(err))
		} else if ok {
			L.SetGlobal(alias, luart.ToLua(L, v))
			return true
		}
	}

	if ns, ok := strings.CutSuffix(path, ".*"); ok {
		names := space.TypesInNamespace(ns)
		bound := false
		for _, n := range names {
			t, err := space.Require(n)
			if err != nil {
				ev.logger.Warnw("loading type for wildcard import", "type", n, zap.Error(err))
				continue
			}
			L.SetGlobal(n[len(ns)+1:], typespace.NewHandle(space, t).LuaValue(L))
			bound = true
		}
		return bound
	}

	t, err := space.Require(path)
	if err != nil {
		return false
	}
	L.SetGlobal(alias, typespace.NewHandle(space, t).LuaValue(L))
	return true
}

// snapshotModule exposes the snapshot store to evaluated code.
func (ev *evaluator) snapshotModule() luart.Module {
	return luart.Module{
		Name: "snapshot",
		Funcs: map[string]lua.LGFunction{
			"get": func(L *lua.LState) int {
				e, err := ev.snapshots.Get(context.Background(), L.CheckString(1))
				if err != nil {
					L.RaiseError("%s", err.Error())
					return 0
				}
				if e.Mode == entity.SnapshotLive {
					L.Push(luart.ToLua(L, e.Value))
					return 1
				}
				L.Push(jsonToLua(L, gjson.Parse(e.Payload)))
				return 1
			},
			"put": func(L *lua.LState) int {
				if _, err := ev.snapshots.Pin(context.Background(), L.CheckString(1), luart.ToGo(L.Get(2))); err != nil {
					L.RaiseError("%s", err.Error())
					return 0
				}
				L.Push(lua.LTrue)
				return 1
			},
			"save": func(L *lua.LState) int {
				if _, err := ev.snapshots.SaveJSON(context.Background(), L.CheckString(1), luart.ToGo(L.Get(2))); err != nil {
					L.RaiseError("%s", err.Error())
					return 0
				}
				L.Push(lua.LTrue)
				return 1
			},
			"names": func(L *lua.LState) int {
				entries, err := ev.snapshots.List(context.Background(), L.OptString(1, ""))
				if err != nil {
					L.RaiseError("%s", err.Error())
					return 0
				}
				tbl := L.CreateTable(len(entries), 0)
				for _, e := range entries {
					tbl.Append(lua.LString(e.Name))
				}
				L.Push(tbl)
				return 1
			},
		},
	}
}

func (ev *evaluator) runContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ev.timeout > 0 {
		return context.WithTimeout(ctx, ev.timeout)
	}
	return context.WithCancel(ctx)
}

// runChunk evaluates source as an expression when it parses as one, as a statement block
// otherwise.
func runChunk(L *lua.LState, source, chunkName string) ([]lua.LValue, error) {
	proto, err := luart.CompileExpression(source, chunkName)
	if err != nil {
		proto, err = luart.Compile(source, chunkName)
		if err != nil {
			return nil, err
		}
	}
	return luart.Call(L, L.NewFunctionFromProto(proto))
}

// diagnostic renders err as a single REPL diagnostic line.
func diagnostic(ctx context.Context, err error) string {
	var f *luart.Fault
	if errors.As(err, &f) {
		return f.Diagnostic()
	}
	var ae *lua.ApiError
	if errors.As(err, &ae) {
		return luart.ClassifyRuntime(ctx, err).Diagnostic()
	}
	return "! " + err.Error()
}

func jsonToLua(L *lua.LState, r gjson.Result) lua.LValue {
	switch r.Type {
	case gjson.String:
		return lua.LString(r.Str)
	case gjson.Number:
		return lua.LNumber(r.Num)
	case gjson.True:
		return lua.LTrue
	case gjson.False:
		return lua.LFalse
	case gjson.JSON:
		tbl := L.NewTable()
		if r.IsArray() {
			for _, item := range r.Array() {
				tbl.Append(jsonToLua(L, item))
			}
			return tbl
		}
		r.ForEach(func(k, v gjson.Result) bool {
			tbl.RawSetString(k.String(), jsonToLua(L, v))
			return true
		})
		return tbl
	default:
		return lua.LNil
	}
}
