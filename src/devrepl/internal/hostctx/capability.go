package hostctx

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/uber/devrepl/src/devrepl/internal/errors"
)

// Method names probed on container objects, in preference order.
var (
	_namesMethods     = []string{"ComponentNames", "Names"}
	_componentMethods = []string{"Component", "Lookup", "Get"}
	_typeMethods      = []string{"ComponentType", "TypeOf"}
	_loaderMethods    = []string{"Loader", "ClassLoader"}
	_resolveMethods   = []string{"Resolve", "Load"}

	_errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// TypeName returns the qualified name of v's dynamic type, without pointer markers.
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	if n, ok := v.(interface{ TypeName() string }); ok {
		return n.TypeName()
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// ComponentNames lists the names of the components managed by container, sorted.
func ComponentNames(container any) ([]string, error) {
	out, err := call(container, "ComponentNames", _namesMethods)
	if err != nil {
		return nil, err
	}
	names, ok := out.([]string)
	if !ok {
		return nil, fmt.Errorf("component names of %s: unexpected result %T", TypeName(container), out)
	}
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return sorted, nil
}

// Component returns the component registered under name.
func Component(container any, name string) (any, error) {
	return call(container, "Component", _componentMethods, name)
}

// ComponentType returns a human-readable type for the component registered under name.
func ComponentType(container any, name string) (string, error) {
	if out, err := call(container, "ComponentType", _typeMethods, name); err == nil {
		if s, ok := out.(string); ok && s != "" {
			return s, nil
		}
	}
	c, err := Component(container, name)
	if err != nil {
		return "", err
	}
	return TypeName(c), nil
}

// Resolve asks the container's loader for the value published under an import path.
// The boolean reports whether the loader knows the path.
func Resolve(container any, path string) (any, bool, error) {
	loader, err := call(container, "Loader", _loaderMethods)
	if err != nil {
		return nil, false, err
	}
	if isNil(loader) {
		return nil, false, &errors.CapabilityError{Capability: "Loader", TypeName: TypeName(container)}
	}
	out, err := call(loader, "Resolve", _resolveMethods, path)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

// isNil reports whether v is nil or holds a nil pointer, map, slice, func, chan or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// IsContainerLike reports whether v exposes the container capability shape, or whether its type,
// one of its embedded types, or one of its declared supertypes matches typeNames.
func IsContainerLike(v any, typeNames []string) bool {
	if v == nil {
		return false
	}
	if _, ok := findMethod(reflect.ValueOf(v), _namesMethods); ok {
		if _, ok := findMethod(reflect.ValueOf(v), _componentMethods); ok {
			return true
		}
	}
	for _, name := range candidateTypeNames(v) {
		for _, want := range typeNames {
			if name == want || strings.HasSuffix(name, "."+want) {
				return true
			}
		}
	}
	return false
}

// candidateTypeNames returns the dynamic type name of v followed by embedded type names and
// supertype names reported through a Supertypes method.
func candidateTypeNames(v any) []string {
	names := []string{TypeName(v)}
	if s, ok := v.(interface{ Supertypes() []string }); ok {
		names = append(names, s.Supertypes()...)
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	seen := map[reflect.Type]bool{}
	var walk func(reflect.Type)
	walk = func(t reflect.Type) {
		if t.Kind() != reflect.Struct || seen[t] {
			return
		}
		seen[t] = true
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			names = append(names, ft.String())
			walk(ft)
		}
	}
	walk(t)
	return names
}

// call invokes the first method of target found in names with args.
// A trailing error result is returned as the error; a trailing bool result of false maps to not found.
func call(target any, capability string, names []string, args ...any) (out any, err error) {
	if target == nil {
		return nil, &errors.CapabilityError{Capability: capability, TypeName: "nil"}
	}
	m, ok := findMethod(reflect.ValueOf(target), names)
	if !ok {
		return nil, &errors.CapabilityError{Capability: capability, TypeName: TypeName(target)}
	}
	mt := m.Type()
	if mt.NumIn() != len(args) || mt.NumOut() == 0 || mt.NumOut() > 2 {
		return nil, &errors.CapabilityError{Capability: capability, TypeName: TypeName(target)}
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(mt.In(i)) {
			return nil, &errors.CapabilityError{Capability: capability, TypeName: TypeName(target)}
		}
		in[i] = av
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s.%s panicked: %v", TypeName(target), capability, r)
		}
	}()
	res := m.Call(in)

	if len(res) == 2 {
		switch {
		case mt.Out(1) == _errorType:
			if e, _ := res[1].Interface().(error); e != nil {
				return nil, e
			}
		case mt.Out(1).Kind() == reflect.Bool:
			if !res[1].Bool() {
				return nil, &errors.ComponentNotFoundError{Name: fmt.Sprint(args...)}
			}
		}
	}
	return res[0].Interface(), nil
}

func findMethod(v reflect.Value, names []string) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	for _, n := range names {
		if m := v.MethodByName(n); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}
