package typespace

import (
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// Kind distinguishes scripted types, whose methods are Lua prototypes, from native Go types.
type Kind int

const (
	// KindScripted types are defined by Lua type scripts and can be redefined.
	KindScripted Kind = iota
	// KindNative types are registered by Go code and are never redefined.
	KindNative
)

func (k Kind) String() string {
	if k == KindNative {
		return "native"
	}
	return "scripted"
}

// TypeInfo is the summary of a loaded type.
type TypeInfo struct {
	Name    string
	Kind    Kind
	Version int
}

// Artifact is the compiled form of one type declaration. Artifacts are produced fresh for every
// compilation and never cached.
type Artifact struct {
	Name       string
	Fields     []string
	Supertypes []string
	Methods    map[string]*lua.FunctionProto
	Statics    map[string]lua.LValue
	Source     string
}

// NativeType describes a Go-backed type registered into the space.
type NativeType struct {
	Statics     map[string]any
	Accessors   map[string]func() (any, error)
	Supertypes  []string
	Constructor func() any
}

// Type is a loaded type. Its method table is replaced in place by redefinition, so existing
// objects observe new behavior on their next method lookup.
type Type struct {
	name  string
	kind  Kind
	owner *Space

	fields      []string
	supertypes  []string
	accessors   map[string]func() (any, error)
	constructor func() any

	// guarded by owner.swap
	methods map[string]*lua.FunctionProto
	source  string
	version int

	staticsMu sync.RWMutex
	statics   map[string]any
}

// Name returns the qualified type name.
func (t *Type) Name() string { return t.name }

// Kind returns whether the type is scripted or native.
func (t *Type) Kind() Kind { return t.kind }

// Fields returns the declared instance fields.
func (t *Type) Fields() []string { return append([]string(nil), t.fields...) }

// Supertypes returns the declared supertype names.
func (t *Type) Supertypes() []string { return append([]string(nil), t.supertypes...) }

// HasField reports whether name is a declared instance field.
func (t *Type) HasField(name string) bool {
	for _, f := range t.fields {
		if f == name {
			return true
		}
	}
	return false
}

// Method returns the current prototype of the named method.
func (t *Type) Method(name string) (*lua.FunctionProto, bool) {
	t.owner.swap.RLock()
	defer t.owner.swap.RUnlock()
	p, ok := t.methods[name]
	return p, ok
}

// MethodNames lists the current method names, sorted.
func (t *Type) MethodNames() []string {
	t.owner.swap.RLock()
	defer t.owner.swap.RUnlock()
	return sortedKeys(t.methods)
}

// Source returns the script text the current method table was compiled from.
func (t *Type) Source() string {
	t.owner.swap.RLock()
	defer t.owner.swap.RUnlock()
	return t.source
}

// Version counts redefinitions, starting at 1 on load.
func (t *Type) Version() int {
	t.owner.swap.RLock()
	defer t.owner.swap.RUnlock()
	return t.version
}

// Static returns the value of a static member.
func (t *Type) Static(name string) (any, bool) {
	t.staticsMu.RLock()
	defer t.staticsMu.RUnlock()
	v, ok := t.statics[name]
	return v, ok
}

// SetStatic assigns a static member.
func (t *Type) SetStatic(name string, v any) {
	t.staticsMu.Lock()
	defer t.staticsMu.Unlock()
	t.statics[name] = v
}

// StaticNames lists static member names, sorted.
func (t *Type) StaticNames() []string {
	t.staticsMu.RLock()
	defer t.staticsMu.RUnlock()
	return sortedKeys(t.statics)
}

// Accessor returns a zero-argument static accessor of a native type.
func (t *Type) Accessor(name string) (func() (any, error), bool) {
	fn, ok := t.accessors[name]
	return fn, ok
}

// AccessorNames lists accessor names, sorted.
func (t *Type) AccessorNames() []string {
	return sortedKeys(t.accessors)
}

func (t *Type) info() TypeInfo {
	return TypeInfo{Name: t.name, Kind: t.kind, Version: t.Version()}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
