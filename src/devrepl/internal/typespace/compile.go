package typespace

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/uber/devrepl/src/devrepl/internal/luart"
	lua "github.com/yuin/gopher-lua"
)

const _compileTimeout = 5 * time.Second

var (
	_namespaceDecl = regexp.MustCompile(`(?m)^\s*namespace\s*\(?\s*["']([A-Za-z_][\w.]*)["']`)
	_classDecl     = regexp.MustCompile(`(?m)^\s*class\s*\(?\s*["']([A-Za-z_]\w*)["']`)
)

// PrimaryName returns the qualified name of the first class declared in source without running
// it. The boolean is false when source declares no class.
func PrimaryName(source string) (string, bool) {
	m := _classDecl.FindStringSubmatch(source)
	if m == nil {
		return "", false
	}
	if ns := _namespaceDecl.FindStringSubmatch(source); ns != nil {
		return ns[1] + "." + m[1], true
	}
	return m[1], true
}

// Compile runs a type script in an isolated interpreter and returns one artifact per class it
// declares. A type script looks like:
//
//	namespace "billing"
//
//	class "Invoice" {
//	  fields = {"amount", "tax"},
//	  extends = "billing.Document",
//	  rate = 0.2,
//	}
//
//	function Invoice:total() return self.amount + self.tax end
//
// Functions become methods, scalar values become statics. Methods may not capture local
// variables of the script because their prototypes are shared across sessions.
func Compile(ctx context.Context, chunkName, source string) ([]Artifact, error) {
	proto, err := luart.Compile(source, chunkName)
	if err != nil {
		return nil, err
	}

	L := luart.NewState()
	defer L.Close()

	c := &collector{}
	L.SetGlobal("namespace", L.NewFunction(c.namespace))
	L.SetGlobal("class", L.NewFunction(c.class))

	ctx, cancel := context.WithTimeout(ctx, _compileTimeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	if _, err := luart.Call(L, L.NewFunctionFromProto(proto)); err != nil {
		return nil, luart.ClassifyRuntime(ctx, err)
	}
	if len(c.decls) == 0 {
		return nil, fmt.Errorf("%s: no class declaration found", chunkName)
	}

	out := make([]Artifact, 0, len(c.decls))
	for _, d := range c.decls {
		a, err := d.artifact(source)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

type collector struct {
	ns    string
	decls []*declaration
}

type declaration struct {
	name string
	body *lua.LTable
}

func (c *collector) namespace(L *lua.LState) int {
	ns := strings.TrimSpace(L.CheckString(1))
	if ns == "" {
		L.ArgError(1, "namespace must not be empty")
		return 0
	}
	c.ns = ns
	return 0
}

func (c *collector) class(L *lua.LState) int {
	simple := L.CheckString(1)
	if simple == "" || strings.Contains(simple, ".") {
		L.ArgError(1, "class name must be a simple identifier")
		return 0
	}
	name := simple
	if c.ns != "" {
		name = c.ns + "." + simple
	}
	for _, d := range c.decls {
		if d.name == name {
			L.RaiseError("class %s declared twice", name)
			return 0
		}
	}

	body := L.NewTable()
	c.decls = append(c.decls, &declaration{name: name, body: body})
	L.SetGlobal(simple, body)

	L.Push(L.NewFunction(func(L *lua.LState) int {
		spec := L.CheckTable(1)
		spec.ForEach(func(k, v lua.LValue) {
			body.RawSet(k, v)
		})
		L.Push(body)
		return 1
	}))
	return 1
}

func (d *declaration) artifact(source string) (Artifact, error) {
	a := Artifact{
		Name:    d.name,
		Methods: map[string]*lua.FunctionProto{},
		Statics: map[string]lua.LValue{},
		Source:  source,
	}

	var err error
	d.body.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("class %s: member keys must be strings, got %s", d.name, k.Type())
			return
		}
		switch string(key) {
		case "fields":
			a.Fields, err = stringList(d.name, "fields", v)
			return
		case "extends":
			a.Supertypes, err = stringList(d.name, "extends", v)
			return
		}

		switch val := v.(type) {
		case *lua.LFunction:
			if val.IsG {
				err = fmt.Errorf("class %s: method %s must be a script function", d.name, key)
				return
			}
			if val.Proto.NumUpvalues > 0 {
				err = fmt.Errorf("class %s: method %s captures local variables", d.name, key)
				return
			}
			a.Methods[string(key)] = val.Proto
		case lua.LString, lua.LNumber, lua.LBool:
			a.Statics[string(key)] = val
		default:
			err = fmt.Errorf("class %s: static %s must be a string, number or boolean", d.name, key)
		}
	})
	if err != nil {
		return Artifact{}, err
	}

	for _, f := range a.Fields {
		if _, ok := a.Methods[f]; ok {
			return Artifact{}, fmt.Errorf("class %s: %s is both a field and a method", d.name, f)
		}
		if _, ok := a.Statics[f]; ok {
			return Artifact{}, fmt.Errorf("class %s: %s is both a field and a static", d.name, f)
		}
	}
	return a, nil
}

func stringList(class, member string, v lua.LValue) ([]string, error) {
	switch val := v.(type) {
	case lua.LString:
		return []string{string(val)}, nil
	case *lua.LTable:
		out := make([]string, 0, val.Len())
		seen := map[string]bool{}
		for i := 1; i <= val.Len(); i++ {
			s, ok := val.RawGetInt(i).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("class %s: %s must list strings", class, member)
			}
			if seen[string(s)] {
				return nil, fmt.Errorf("class %s: %s lists %q twice", class, member, s)
			}
			seen[string(s)] = true
			out = append(out, string(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("class %s: %s must be a string or a list of strings", class, member)
	}
}
