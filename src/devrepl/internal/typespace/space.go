// Package typespace is the process instrumentation facility of devrepl: it owns every loaded
// type, creates identity-preserving objects, and redefines scripted types in place.
package typespace

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/uber/devrepl/src/devrepl/internal/errors"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/multierr"
)

// Facility is the redefinition capability consumed by the hot-patch engine.
type Facility interface {
	LoadedTypes() []TypeInfo
	IsLoaded(name string) bool
	Lookup(name string) (*Type, bool)
	RedefinitionSupported() bool
	Redefine(artifacts []Artifact) error
}

// Space is a namespace of loaded types. A Space created with NewLayer resolves missing names
// through its parent and never affects it.
type Space struct {
	parent       *Space
	redefinition bool
	ids          *atomic.Uint64

	mu      sync.RWMutex
	types   map[string]*Type
	pending map[string]Artifact

	// swap is held for writing while a redefinition batch replaces method tables.
	swap       sync.RWMutex
	redefineMu sync.Mutex
}

var _ Facility = (*Space)(nil)

// NewSpace returns an empty root space.
func NewSpace(redefinition bool) *Space {
	return &Space{
		redefinition: redefinition,
		ids:          &atomic.Uint64{},
		types:        map[string]*Type{},
		pending:      map[string]Artifact{},
	}
}

// NewLayer returns a throwaway child space. Types loaded into the layer shadow the parent's.
func (s *Space) NewLayer() *Space {
	return &Space{
		parent:  s,
		ids:     s.ids,
		types:   map[string]*Type{},
		pending: map[string]Artifact{},
	}
}

// RedefinitionSupported reports whether Redefine may be called.
func (s *Space) RedefinitionSupported() bool {
	return s.redefinition
}

// RegisterNative loads a Go-backed type.
func (s *Space) RegisterNative(name string, nt NativeType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.types[name]; ok {
		return fmt.Errorf("type %q is already loaded", name)
	}
	statics := make(map[string]any, len(nt.Statics))
	for k, v := range nt.Statics {
		statics[k] = v
	}
	accessors := make(map[string]func() (any, error), len(nt.Accessors))
	for k, v := range nt.Accessors {
		accessors[k] = v
	}
	s.types[name] = &Type{
		name:        name,
		kind:        KindNative,
		owner:       s,
		supertypes:  append([]string(nil), nt.Supertypes...),
		accessors:   accessors,
		constructor: nt.Constructor,
		statics:     statics,
		version:     1,
	}
	return nil
}

// Load defines scripted types from artifacts. Loading a name that is already loaded in this
// space fails; redefinition goes through Redefine.
func (s *Space) Load(artifacts []Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs error
	for _, a := range artifacts {
		if _, ok := s.types[a.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("type %q is already loaded", a.Name))
		}
	}
	if errs != nil {
		return errs
	}

	for _, a := range artifacts {
		statics := make(map[string]any, len(a.Statics))
		for k, v := range a.Statics {
			statics[k] = v
		}
		s.types[a.Name] = &Type{
			name:       a.Name,
			kind:       KindScripted,
			owner:      s,
			fields:     append([]string(nil), a.Fields...),
			supertypes: append([]string(nil), a.Supertypes...),
			methods:    copyMethods(a.Methods),
			source:     a.Source,
			statics:    statics,
			version:    1,
		}
		delete(s.pending, a.Name)
	}
	return nil
}

// Stage records artifacts for types that should load lazily on first use. Names already loaded
// are ignored.
func (s *Space) Stage(artifacts []Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range artifacts {
		if _, ok := s.types[a.Name]; ok {
			continue
		}
		s.pending[a.Name] = a
	}
}

// Pending lists staged type names that have not been loaded yet, sorted.
func (s *Space) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.pending)
}

// Lookup returns a loaded type without triggering lazy loading.
func (s *Space) Lookup(name string) (*Type, bool) {
	s.mu.RLock()
	t, ok := s.types[name]
	s.mu.RUnlock()
	if ok {
		return t, true
	}
	if s.parent != nil {
		return s.parent.Lookup(name)
	}
	return nil, false
}

// Require returns the named type, loading a staged definition on first use.
func (s *Space) Require(name string) (*Type, error) {
	if t, ok := s.Lookup(name); ok {
		return t, nil
	}

	for sp := s; sp != nil; sp = sp.parent {
		sp.mu.RLock()
		a, ok := sp.pending[name]
		sp.mu.RUnlock()
		if !ok {
			continue
		}
		if err := sp.Load([]Artifact{a}); err != nil {
			if t, ok := sp.Lookup(name); ok {
				return t, nil
			}
			return nil, err
		}
		t, _ := sp.Lookup(name)
		return t, nil
	}
	return nil, &errors.TypeNotFoundError{Name: name}
}

// IsLoaded reports whether name is loaded in this space or an ancestor.
func (s *Space) IsLoaded(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// LoadedTypes lists loaded types sorted by name. Layer types shadow ancestor types.
func (s *Space) LoadedTypes() []TypeInfo {
	byName := map[string]*Type{}
	var chain []*Space
	for sp := s; sp != nil; sp = sp.parent {
		chain = append(chain, sp)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].mu.RLock()
		for k, t := range chain[i].types {
			byName[k] = t
		}
		chain[i].mu.RUnlock()
	}

	out := make([]TypeInfo, 0, len(byName))
	for _, t := range byName {
		out = append(out, t.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TypesInNamespace returns loaded and staged type names directly under ns.
func (s *Space) TypesInNamespace(ns string) []string {
	prefix := ns + "."
	seen := map[string]bool{}
	for sp := s; sp != nil; sp = sp.parent {
		sp.mu.RLock()
		for k := range sp.types {
			if strings.HasPrefix(k, prefix) && !strings.Contains(k[len(prefix):], ".") {
				seen[k] = true
			}
		}
		for k := range sp.pending {
			if strings.HasPrefix(k, prefix) && !strings.Contains(k[len(prefix):], ".") {
				seen[k] = true
			}
		}
		sp.mu.RUnlock()
	}
	return sortedKeys(seen)
}

// Redefine replaces the method tables of loaded scripted types. Every artifact is validated first;
// a single incompatible change fails the whole batch and nothing is replaced.
func (s *Space) Redefine(artifacts []Artifact) error {
	if !s.redefinition {
		return errors.ErrRedefinitionUnsupported
	}
	s.redefineMu.Lock()
	defer s.redefineMu.Unlock()

	s.mu.RLock()
	targets := make([]*Type, len(artifacts))
	var errs error
	for i, a := range artifacts {
		t, ok := s.types[a.Name]
		if !ok {
			errs = multierr.Append(errs, &errors.TypeNotFoundError{Name: a.Name})
			continue
		}
		if err := checkCompatible(t, a); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		targets[i] = t
	}
	s.mu.RUnlock()
	if errs != nil {
		return errs
	}

	s.swap.Lock()
	defer s.swap.Unlock()
	for i, a := range artifacts {
		t := targets[i]
		t.methods = copyMethods(a.Methods)
		t.source = a.Source
		t.version++
	}
	for i, a := range artifacts {
		t := targets[i]
		t.staticsMu.Lock()
		for k, v := range a.Statics {
			if _, ok := t.statics[k]; !ok {
				t.statics[k] = v
			}
		}
		t.staticsMu.Unlock()
	}
	return nil
}

// New creates an object of a scripted type with the given initial field values.
func (s *Space) New(typeName string, fields map[string]lua.LValue) (*Object, error) {
	t, err := s.Require(typeName)
	if err != nil {
		return nil, err
	}
	if t.kind != KindScripted {
		return nil, fmt.Errorf("type %q is native and has no scripted fields", typeName)
	}

	o := &Object{typ: t, id: s.ids.Add(1), fields: make(map[string]lua.LValue, len(t.fields))}
	for k, v := range fields {
		if err := o.Set(k, v); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func checkCompatible(t *Type, a Artifact) error {
	if t.kind == KindNative {
		return &errors.IncompatibleChangeError{TypeName: t.name, Detail: "native types cannot be redefined"}
	}
	if !sameSet(t.fields, a.Fields) {
		return &errors.IncompatibleChangeError{
			TypeName: t.name,
			Detail:   fmt.Sprintf("fields changed from %v to %v", sorted(t.fields), sorted(a.Fields)),
		}
	}
	if !sameSet(t.supertypes, a.Supertypes) {
		return &errors.IncompatibleChangeError{TypeName: t.name, Detail: "supertypes changed"}
	}

	t.owner.swap.RLock()
	current := t.methods
	t.owner.swap.RUnlock()

	for name, old := range current {
		p, ok := a.Methods[name]
		if !ok {
			return &errors.IncompatibleChangeError{TypeName: t.name, Detail: fmt.Sprintf("method %s removed", name)}
		}
		if p.NumParameters != old.NumParameters || p.IsVarArg != old.IsVarArg {
			return &errors.IncompatibleChangeError{TypeName: t.name, Detail: fmt.Sprintf("method %s signature changed", name)}
		}
	}
	for name := range a.Methods {
		if _, ok := current[name]; !ok {
			return &errors.IncompatibleChangeError{TypeName: t.name, Detail: fmt.Sprintf("method %s added", name)}
		}
	}
	return nil
}

func copyMethods(in map[string]*lua.FunctionProto) map[string]*lua.FunctionProto {
	out := make(map[string]*lua.FunctionProto, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := sorted(a), sorted(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
