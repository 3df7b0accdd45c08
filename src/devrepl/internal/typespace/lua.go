package typespace

import (
	"fmt"

	"github.com/uber/devrepl/src/devrepl/internal/luart"
	lua "github.com/yuin/gopher-lua"
)

const (
	_objectMetatable = "devrepl.object"
	_typeMetatable   = "devrepl.type"
)

// Handle is the Lua-visible reference to a type: it constructs objects and exposes statics,
// accessors and methods.
type Handle struct {
	space *Space
	typ   *Type
}

// NewHandle returns a handle resolving constructions through space.
func NewHandle(space *Space, t *Type) *Handle {
	return &Handle{space: space, typ: t}
}

// Type returns the referenced type.
func (h *Handle) Type() *Type { return h.typ }

// String implements fmt.Stringer.
func (h *Handle) String() string {
	return "type " + h.typ.name
}

// LuaValue implements luart.Valuer.
func (h *Handle) LuaValue(L *lua.LState) lua.LValue {
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, typeMetatable(L))
	return ud
}

// Construct creates an instance of the referenced type from an optional table of field values.
func (h *Handle) Construct(L *lua.LState, init lua.LValue) (lua.LValue, error) {
	if h.typ.kind == KindNative {
		if h.typ.constructor == nil {
			return nil, fmt.Errorf("type %q cannot be constructed", h.typ.name)
		}
		v := h.typ.constructor()
		if tbl, ok := init.(*lua.LTable); ok {
			var err error
			tbl.ForEach(func(k, val lua.LValue) {
				if err == nil {
					err = luart.SetField(L, v, k.String(), val)
				}
			})
			if err != nil {
				return nil, err
			}
		}
		return luart.ToLua(L, v), nil
	}

	fields := map[string]lua.LValue{}
	if tbl, ok := init.(*lua.LTable); ok {
		tbl.ForEach(func(k, v lua.LValue) {
			fields[k.String()] = v
		})
	}
	o, err := h.space.New(h.typ.name, fields)
	if err != nil {
		return nil, err
	}
	return o.LuaValue(L), nil
}

// Install binds the construction helpers new(typeName[, fields]) and typeof(value) into L.
func (s *Space) Install(L *lua.LState) {
	L.SetGlobal("new", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		t, err := s.Require(name)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		v, err := NewHandle(s, t).Construct(L, L.Get(2))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(v)
		return 1
	}))
	L.SetGlobal("typeof", L.NewFunction(func(L *lua.LState) int {
		v := L.Get(1)
		if ud, ok := v.(*lua.LUserData); ok {
			switch val := ud.Value.(type) {
			case *Object:
				L.Push(lua.LString(val.TypeName()))
			case *Handle:
				L.Push(lua.LString("type"))
			default:
				L.Push(lua.LString(fmt.Sprintf("%T", val)))
			}
			return 1
		}
		L.Push(lua.LString(v.Type().String()))
		return 1
	}))
}

func objectMetatable(L *lua.LState) lua.LValue {
	if mt := L.GetTypeMetatable(_objectMetatable); mt != lua.LNil {
		return mt
	}
	mt := L.NewTypeMetatable(_objectMetatable)
	L.SetField(mt, "__index", L.NewFunction(objectIndex))
	L.SetField(mt, "__newindex", L.NewFunction(objectNewIndex))
	L.SetField(mt, "__tostring", L.NewFunction(objectToString))
	L.SetField(mt, "__eq", L.NewFunction(objectEq))
	return mt
}

func checkObject(L *lua.LState, n int) *Object {
	ud := L.CheckUserData(n)
	o, ok := ud.Value.(*Object)
	if !ok {
		L.ArgError(n, "object expected")
		return nil
	}
	return o
}

func objectIndex(L *lua.LState) int {
	o := checkObject(L, 1)
	key := L.CheckString(2)

	if o.typ.HasField(key) {
		L.Push(o.Get(key))
		return 1
	}
	if p, ok := o.typ.Method(key); ok {
		L.Push(L.NewFunctionFromProto(p))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func objectNewIndex(L *lua.LState) int {
	o := checkObject(L, 1)
	if err := o.Set(L.CheckString(2), L.Get(3)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func objectToString(L *lua.LState) int {
	o := checkObject(L, 1)
	if p, ok := o.typ.Method("tostring"); ok {
		if err := L.CallByParam(lua.P{Fn: L.NewFunctionFromProto(p), NRet: 1, Protect: true}, L.Get(1)); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		ret := L.Get(-1)
		L.Pop(1)
		L.Push(lua.LString(ret.String()))
		return 1
	}
	L.Push(lua.LString(o.String()))
	return 1
}

func objectEq(L *lua.LState) int {
	a, aok := L.CheckUserData(1).Value.(*Object)
	b, bok := L.CheckUserData(2).Value.(*Object)
	L.Push(lua.LBool(aok && bok && a == b))
	return 1
}

func typeMetatable(L *lua.LState) lua.LValue {
	if mt := L.GetTypeMetatable(_typeMetatable); mt != lua.LNil {
		return mt
	}
	mt := L.NewTypeMetatable(_typeMetatable)
	L.SetField(mt, "__index", L.NewFunction(typeIndex))
	L.SetField(mt, "__newindex", L.NewFunction(typeNewIndex))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkHandle(L, 1).String()))
		return 1
	}))
	L.SetField(mt, "__call", L.NewFunction(func(L *lua.LState) int {
		h := checkHandle(L, 1)
		v, err := h.Construct(L, L.Get(2))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(v)
		return 1
	}))
	return mt
}

func checkHandle(L *lua.LState, n int) *Handle {
	ud := L.CheckUserData(n)
	h, ok := ud.Value.(*Handle)
	if !ok {
		L.ArgError(n, "type expected")
		return nil
	}
	return h
}

func typeIndex(L *lua.LState) int {
	self := L.CheckUserData(1)
	h := checkHandle(L, 1)
	key := L.CheckString(2)

	switch key {
	case "new":
		L.Push(L.NewFunction(func(L *lua.LState) int {
			init := L.Get(1)
			if ud, ok := init.(*lua.LUserData); ok && ud == self {
				init = L.Get(2)
			}
			v, err := h.Construct(L, init)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(v)
			return 1
		}))
		return 1
	case "name":
		L.Push(lua.LString(h.typ.name))
		return 1
	}

	if v, ok := h.typ.Static(key); ok {
		L.Push(luart.ToLua(L, v))
		return 1
	}
	if fn, ok := h.typ.Accessor(key); ok {
		L.Push(L.NewFunction(func(L *lua.LState) int {
			v, err := fn()
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			L.Push(luart.ToLua(L, v))
			return 1
		}))
		return 1
	}
	if p, ok := h.typ.Method(key); ok {
		L.Push(L.NewFunctionFromProto(p))
		return 1
	}
	L.Push(lua.LNil)
	return 1
}

func typeNewIndex(L *lua.LState) int {
	h := checkHandle(L, 1)
	key := L.CheckString(2)
	v := L.Get(3)
	if ud, ok := v.(*lua.LUserData); ok {
		h.typ.SetStatic(key, ud.Value)
		return 0
	}
	h.typ.SetStatic(key, v)
	return 0
}
