package luart

import (
	"encoding/json"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	lua "github.com/yuin/gopher-lua"
)

// Module is a named table of Go functions that can be bound into a state by an import line.
type Module struct {
	Name  string
	Funcs map[string]lua.LGFunction
}

// Table builds a fresh table for the module in L.
func (m Module) Table(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), m.Funcs)
}

// Builtins returns the modules every evaluation state can import.
func Builtins() []Module {
	return []Module{JSONModule(), StringsModule(), TimeModule(), OSModule()}
}

// JSONModule exposes JSON encoding plus gjson path queries and sjson path updates.
func JSONModule() Module {
	return Module{
		Name: "json",
		Funcs: map[string]lua.LGFunction{
			"encode": func(L *lua.LState) int {
				b, err := json.Marshal(ToGo(L.Get(1)))
				if err != nil {
					L.RaiseError("json.encode: %s", err.Error())
					return 0
				}
				L.Push(lua.LString(b))
				return 1
			},
			"decode": func(L *lua.LState) int {
				src := L.CheckString(1)
				if !gjson.Valid(src) {
					L.RaiseError("json.decode: invalid JSON")
					return 0
				}
				L.Push(ToLua(L, gjson.Parse(src).Value()))
				return 1
			},
			"get": func(L *lua.LState) int {
				res := gjson.Get(L.CheckString(1), L.CheckString(2))
				if !res.Exists() {
					L.Push(lua.LNil)
					return 1
				}
				L.Push(ToLua(L, res.Value()))
				return 1
			},
			"set": func(L *lua.LState) int {
				out, err := sjson.Set(L.CheckString(1), L.CheckString(2), ToGo(L.Get(3)))
				if err != nil {
					L.RaiseError("json.set: %s", err.Error())
					return 0
				}
				L.Push(lua.LString(out))
				return 1
			},
			"pretty": func(L *lua.LState) int {
				L.Push(lua.LString(pretty.Pretty([]byte(L.CheckString(1)))))
				return 1
			},
		},
	}
}

// StringsModule exposes a subset of the strings package.
func StringsModule() Module {
	return Module{
		Name: "strings",
		Funcs: map[string]lua.LGFunction{
			"split": func(L *lua.LState) int {
				L.Push(ToLua(L, strings.Split(L.CheckString(1), L.CheckString(2))))
				return 1
			},
			"join": func(L *lua.LState) int {
				tbl := L.CheckTable(1)
				parts := make([]string, 0, tbl.Len())
				for i := 1; i <= tbl.Len(); i++ {
					parts = append(parts, L.ToStringMeta(tbl.RawGetInt(i)).String())
				}
				L.Push(lua.LString(strings.Join(parts, L.OptString(2, ""))))
				return 1
			},
			"trim": func(L *lua.LState) int {
				L.Push(lua.LString(strings.TrimSpace(L.CheckString(1))))
				return 1
			},
			"contains": func(L *lua.LState) int {
				L.Push(lua.LBool(strings.Contains(L.CheckString(1), L.CheckString(2))))
				return 1
			},
			"hasPrefix": func(L *lua.LState) int {
				L.Push(lua.LBool(strings.HasPrefix(L.CheckString(1), L.CheckString(2))))
				return 1
			},
			"hasSuffix": func(L *lua.LState) int {
				L.Push(lua.LBool(strings.HasSuffix(L.CheckString(1), L.CheckString(2))))
				return 1
			},
			"upper": func(L *lua.LState) int {
				L.Push(lua.LString(strings.ToUpper(L.CheckString(1))))
				return 1
			},
			"lower": func(L *lua.LState) int {
				L.Push(lua.LString(strings.ToLower(L.CheckString(1))))
				return 1
			},
			"replace": func(L *lua.LState) int {
				L.Push(lua.LString(strings.ReplaceAll(L.CheckString(1), L.CheckString(2), L.CheckString(3))))
				return 1
			},
			"fields": func(L *lua.LState) int {
				L.Push(ToLua(L, strings.Fields(L.CheckString(1))))
				return 1
			},
		},
	}
}

// TimeModule exposes wall-clock helpers. now returns a host time value.
func TimeModule() Module {
	return Module{
		Name: "time",
		Funcs: map[string]lua.LGFunction{
			"now": func(L *lua.LState) int {
				L.Push(Wrap(L, time.Now()))
				return 1
			},
			"unix": func(L *lua.LState) int {
				L.Push(lua.LNumber(float64(time.Now().UnixNano()) / float64(time.Second)))
				return 1
			},
			"since": func(L *lua.LState) int {
				ud := L.CheckUserData(1)
				t, ok := ud.Value.(time.Time)
				if !ok {
					L.ArgError(1, "time value expected")
					return 0
				}
				L.Push(lua.LNumber(time.Since(t).Seconds()))
				return 1
			},
			"format": func(L *lua.LState) int {
				ud := L.CheckUserData(1)
				t, ok := ud.Value.(time.Time)
				if !ok {
					L.ArgError(1, "time value expected")
					return 0
				}
				L.Push(lua.LString(t.Format(L.OptString(2, time.RFC3339))))
				return 1
			},
		},
	}
}

// OSModule exposes read-only facts about the host process.
func OSModule() Module {
	return Module{
		Name: "os",
		Funcs: map[string]lua.LGFunction{
			"getenv": func(L *lua.LState) int {
				v, ok := os.LookupEnv(L.CheckString(1))
				if !ok {
					L.Push(lua.LNil)
					return 1
				}
				L.Push(lua.LString(v))
				return 1
			},
			"hostname": func(L *lua.LState) int {
				h, err := os.Hostname()
				if err != nil {
					L.RaiseError("os.hostname: %s", err.Error())
					return 0
				}
				L.Push(lua.LString(h))
				return 1
			},
			"pid": func(L *lua.LState) int {
				L.Push(lua.LNumber(os.Getpid()))
				return 1
			},
			"goroutines": func(L *lua.LState) int {
				L.Push(lua.LNumber(runtime.NumGoroutine()))
				return 1
			},
		},
	}
}
