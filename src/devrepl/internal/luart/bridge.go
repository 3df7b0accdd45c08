package luart

import (
	"fmt"
	"reflect"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

const _hostMetatable = "devrepl.host"

var (
	_errorType  = reflect.TypeOf((*error)(nil)).Elem()
	_lvalueType = reflect.TypeOf((*lua.LValue)(nil)).Elem()
)

// Valuer is implemented by Go values that know their own Lua representation.
type Valuer interface {
	LuaValue(L *lua.LState) lua.LValue
}

// ToLua converts a Go value to a Lua value. Scalars, slices and string-keyed maps are copied;
// structs, pointers and other values are exposed by reference as host userdata.
func ToLua(L *lua.LState, v any) lua.LValue {
	if v == nil {
		return lua.LNil
	}

	switch val := v.(type) {
	case lua.LValue:
		return val
	case Valuer:
		return val.LuaValue(L)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return lua.LNil
		}
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		t := L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, ToLua(L, rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Wrap(L, v)
		}
		t := L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSetString(iter.Key().String(), ToLua(L, iter.Value().Interface()))
		}
		return t
	case reflect.Func:
		return L.NewFunction(wrapFunc(rv))
	default:
		return Wrap(L, v)
	}
}

// ToGo converts a Lua value to a Go value. Tables with contiguous integer keys from 1 become
// []any, other tables map[string]any; userdata yields its wrapped value.
func ToGo(lv lua.LValue) any {
	return toGo(lv, map[*lua.LTable]bool{})
}

func toGo(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case nil:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGo(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v, visited)
	})
	return m
}

// Wrap exposes v to Lua as host userdata: exported methods and fields are reachable through
// indexing, exported fields of struct pointers are assignable, tostring uses fmt.Stringer or %+v.
func Wrap(L *lua.LState, v any) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = v
	L.SetMetatable(ud, hostMetatable(L))
	return ud
}

func hostMetatable(L *lua.LState) lua.LValue {
	if mt := L.GetTypeMetatable(_hostMetatable); mt != lua.LNil {
		return mt
	}
	mt := L.NewTypeMetatable(_hostMetatable)
	L.SetField(mt, "__index", L.NewFunction(hostIndex))
	L.SetField(mt, "__newindex", L.NewFunction(hostNewIndex))
	L.SetField(mt, "__tostring", L.NewFunction(hostToString))
	L.SetField(mt, "__len", L.NewFunction(hostLen))
	return mt
}

func hostIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	key := L.Get(2)
	rv := reflect.ValueOf(ud.Value)
	if !rv.IsValid() {
		L.Push(lua.LNil)
		return 1
	}

	if name, ok := key.(lua.LString); ok {
		if m := rv.MethodByName(string(name)); m.IsValid() {
			L.Push(L.NewFunction(wrapMethod(ud, m)))
			return 1
		}
	}

	base := rv
	for base.Kind() == reflect.Pointer || base.Kind() == reflect.Interface {
		if base.IsNil() {
			L.Push(lua.LNil)
			return 1
		}
		base = base.Elem()
	}

	switch base.Kind() {
	case reflect.Struct:
		if name, ok := key.(lua.LString); ok {
			if f, ok := base.Type().FieldByName(string(name)); ok && f.IsExported() {
				L.Push(ToLua(L, base.FieldByIndex(f.Index).Interface()))
				return 1
			}
		}
	case reflect.Map:
		kv, err := convertArg(L, key, base.Type().Key())
		if err == nil {
			if mv := base.MapIndex(kv); mv.IsValid() {
				L.Push(ToLua(L, mv.Interface()))
				return 1
			}
		}
	case reflect.Slice, reflect.Array:
		if n, ok := key.(lua.LNumber); ok {
			i := int(n) - 1
			if i >= 0 && i < base.Len() {
				L.Push(ToLua(L, base.Index(i).Interface()))
				return 1
			}
		}
	}
	L.Push(lua.LNil)
	return 1
}

func hostNewIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	if err := SetField(L, ud.Value, L.CheckString(2), L.Get(3)); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// SetField assigns an exported field of the struct pointed to by target.
func SetField(L *lua.LState, target any, name string, value lua.LValue) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot assign field %q on %T", name, target)
	}
	f := rv.Elem().FieldByName(name)
	if !f.IsValid() || !f.CanSet() {
		return fmt.Errorf("%T has no assignable field %q", target, name)
	}
	conv, err := convertArg(L, value, f.Type())
	if err != nil {
		return fmt.Errorf("assigning %q: %w", name, err)
	}
	f.Set(conv)
	return nil
}

func hostToString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	L.Push(lua.LString(Describe(ud.Value)))
	return 1
}

func hostLen(L *lua.LState) int {
	ud := L.CheckUserData(1)
	rv := reflect.Indirect(reflect.ValueOf(ud.Value))
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String, reflect.Chan:
		L.Push(lua.LNumber(rv.Len()))
	default:
		L.Push(lua.LNumber(0))
	}
	return 1
}

// Describe renders a Go value the way the REPL shows host objects.
func Describe(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	}
	return fmt.Sprintf("%T%+v", v, v)
}

// Members lists the exported method and field names reachable on v, sorted.
func Members(v any) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	seen := map[string]bool{}
	for i := 0; i < rv.NumMethod(); i++ {
		seen[rv.Type().Method(i).Name] = true
	}
	base := reflect.Indirect(rv)
	if base.Kind() == reflect.Struct {
		for i := 0; i < base.NumField(); i++ {
			if f := base.Type().Field(i); f.IsExported() {
				seen[f.Name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// wrapMethod binds a method value so it may be called as obj:M(...) or obj.M(...).
func wrapMethod(self *lua.LUserData, m reflect.Value) lua.LGFunction {
	inner := wrapFunc(m)
	return func(L *lua.LState) int {
		if L.GetTop() > 0 {
			if ud, ok := L.Get(1).(*lua.LUserData); ok && ud == self {
				L.Remove(1)
			}
		}
		return inner(L)
	}
}

// wrapFunc adapts a Go function to Lua calling conventions. A trailing non-nil error result is raised.
func wrapFunc(fn reflect.Value) lua.LGFunction {
	ft := fn.Type()
	return func(L *lua.LState) int {
		argc := L.GetTop()
		numIn := ft.NumIn()
		if ft.IsVariadic() {
			if argc < numIn-1 {
				L.RaiseError("expected at least %d arguments, got %d", numIn-1, argc)
				return 0
			}
		} else if argc != numIn {
			L.RaiseError("expected %d arguments, got %d", numIn, argc)
			return 0
		}

		in := make([]reflect.Value, 0, argc)
		for i := 0; i < argc; i++ {
			var pt reflect.Type
			if ft.IsVariadic() && i >= numIn-1 {
				pt = ft.In(numIn - 1).Elem()
			} else {
				pt = ft.In(i)
			}
			v, err := convertArg(L, L.Get(i+1), pt)
			if err != nil {
				L.ArgError(i+1, err.Error())
				return 0
			}
			in = append(in, v)
		}

		out := fn.Call(in)
		if n := len(out); n > 0 && ft.Out(n-1) == _errorType {
			if err, _ := out[n-1].Interface().(error); err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			out = out[:n-1]
		}
		for _, o := range out {
			L.Push(ToLua(L, o.Interface()))
		}
		return len(out)
	}
}

// convertArg converts a Lua value into a reflect.Value assignable to t.
func convertArg(L *lua.LState, lv lua.LValue, t reflect.Type) (reflect.Value, error) {
	if t == _lvalueType {
		return reflect.ValueOf(&lv).Elem(), nil
	}
	if lv == lua.LNil {
		return reflect.Zero(t), nil
	}
	if ud, ok := lv.(*lua.LUserData); ok {
		if ud.Value == nil {
			return reflect.Zero(t), nil
		}
		uv := reflect.ValueOf(ud.Value)
		if uv.Type().AssignableTo(t) {
			return uv, nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use %T as %s", ud.Value, t)
	}

	if t.Kind() == reflect.Interface {
		g := ToGo(lv)
		if g == nil {
			return reflect.Zero(t), nil
		}
		gv := reflect.ValueOf(g)
		if !gv.Type().AssignableTo(t) {
			return reflect.Value{}, fmt.Errorf("cannot use %s as %s", lv.Type(), t)
		}
		return gv, nil
	}

	switch v := lv.(type) {
	case lua.LNumber:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return reflect.ValueOf(float64(v)).Convert(t), nil
		}
	case lua.LString:
		switch t.Kind() {
		case reflect.String:
			return reflect.ValueOf(string(v)).Convert(t), nil
		case reflect.Slice:
			if t.Elem().Kind() == reflect.Uint8 {
				return reflect.ValueOf([]byte(v)).Convert(t), nil
			}
		}
	case lua.LBool:
		if t.Kind() == reflect.Bool {
			return reflect.ValueOf(bool(v)).Convert(t), nil
		}
	case *lua.LTable:
		switch t.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(t, 0, v.Len())
			for i := 1; i <= v.Len(); i++ {
				ev, err := convertArg(L, v.RawGetInt(i), t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out = reflect.Append(out, ev)
			}
			return out, nil
		case reflect.Map:
			out := reflect.MakeMap(t)
			var convErr error
			v.ForEach(func(k, val lua.LValue) {
				if convErr != nil {
					return
				}
				kv, err := convertArg(L, k, t.Key())
				if err != nil {
					convErr = err
					return
				}
				vv, err := convertArg(L, val, t.Elem())
				if err != nil {
					convErr = err
					return
				}
				out.SetMapIndex(kv, vv)
			})
			if convErr != nil {
				return reflect.Value{}, convErr
			}
			return out, nil
		}
	case *lua.LFunction:
		if t.Kind() == reflect.Func {
			return reflect.Value{}, fmt.Errorf("passing Lua functions as %s is not supported", t)
		}
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", lv.Type(), t)
}
