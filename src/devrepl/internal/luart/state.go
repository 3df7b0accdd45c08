// Package luart wraps gopher-lua with the pieces shared by every evaluation state:
// library setup, compilation with structured diagnostics, and the Go/Lua value bridge.
package luart

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// NewState creates a Lua state with the base, table, string, math and coroutine libraries.
// io, os, debug and package are not opened: host access goes through bridge globals.
func NewState() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
		{lua.CoroutineLibName, lua.OpenCoroutine},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	return L
}

// RedirectPrint replaces the global print with one writing to w, tab separated, newline terminated.
// w is resolved on every call so callers can swap buffers between evaluations.
func RedirectPrint(L *lua.LState, w func() io.Writer) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(w(), strings.Join(parts, "\t"))
		return 0
	}))
}

// Render returns the display form of v, honouring __tostring metamethods.
func Render(L *lua.LState, v lua.LValue) string {
	if v == nil || v == lua.LNil {
		return "nil"
	}
	return L.ToStringMeta(v).String()
}

// Call invokes fn with args in protected mode and returns all results.
func Call(L *lua.LState, fn *lua.LFunction, args ...lua.LValue) (results []lua.LValue, err error) {
	base := L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			L.SetTop(base)
			results, err = nil, &Fault{Kind: FaultPanic, Message: fmt.Sprint(r)}
		}
	}()

	L.Push(fn)
	for _, a := range args {
		L.Push(a)
	}
	if err := L.PCall(len(args), lua.MultRet, nil); err != nil {
		L.SetTop(base)
		return nil, err
	}

	n := L.GetTop() - base
	results = make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = L.Get(base + i + 1)
	}
	L.SetTop(base)
	return results, nil
}
