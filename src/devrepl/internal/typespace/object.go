package typespace

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/uber/devrepl/src/devrepl/internal/luart"
	lua "github.com/yuin/gopher-lua"
)

// Object is an instance of a scripted type. Its identity and field values survive redefinition
// of its type; methods are resolved against the type's current method table on every lookup.
//
// Field values are Lua values owned by whichever session stored them. Sharing objects between
// sessions shares those values without further synchronization.
type Object struct {
	typ *Type
	id  uint64

	mu     sync.Mutex
	fields map[string]lua.LValue
}

// Type returns the object's type.
func (o *Object) Type() *Type { return o.typ }

// TypeName returns the qualified name of the object's type.
func (o *Object) TypeName() string { return o.typ.name }

// Supertypes returns the declared supertypes of the object's type.
func (o *Object) Supertypes() []string { return o.typ.Supertypes() }

// ID returns the process-unique identity of the object.
func (o *Object) ID() uint64 { return o.id }

// Get returns a field value, LNil when unset.
func (o *Object) Get(field string) lua.LValue {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.fields[field]; ok {
		return v
	}
	return lua.LNil
}

// Set assigns a declared field.
func (o *Object) Set(field string, v lua.LValue) error {
	if !o.typ.HasField(field) {
		return fmt.Errorf("%s has no field %q", o.typ.name, field)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if v == nil || v == lua.LNil {
		delete(o.fields, field)
		return nil
	}
	o.fields[field] = v
	return nil
}

// Snapshot returns a copy of the current field values.
func (o *Object) Snapshot() map[string]lua.LValue {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]lua.LValue, len(o.fields))
	for k, v := range o.fields {
		out[k] = v
	}
	return out
}

// String implements fmt.Stringer.
func (o *Object) String() string {
	return fmt.Sprintf("%s@%d", o.typ.name, o.id)
}

// MarshalJSON encodes the declared fields of the object.
func (o *Object) MarshalJSON() ([]byte, error) {
	fields := o.Snapshot()
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string]any, len(fields))
	for _, k := range names {
		out[k] = luart.ToGo(fields[k])
	}
	return json.Marshal(out)
}

// LuaValue implements luart.Valuer.
func (o *Object) LuaValue(L *lua.LState) lua.LValue {
	ud := L.NewUserData()
	ud.Value = o
	L.SetMetatable(ud, objectMetatable(L))
	return ud
}
