package cell

import (
	"reflect"
	"time"
	"unsafe"
)

// Clone returns a deep copy of value. Pointers, maps, slices, arrays,
// interfaces and struct fields, exported or not, are copied recursively so the
// result shares no mutable memory with the input. Shared and cyclic pointers
// and maps are copied once and keep their shape in the copy. time.Time values
// and funcs and channels are copied by value.
func Clone[T any](value T) T {
	var zero T
	c := cloner{seen: map[visit]reflect.Value{}}
	cloned := c.clone(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return zero
	}
	if out, ok := cloned.Interface().(T); ok {
		return out
	}
	result := reflect.New(reflect.TypeOf(zero)).Elem()
	result.Set(cloned.Convert(result.Type()))
	return result.Interface().(T)
}

var timeType = reflect.TypeFor[time.Time]()

type visit struct {
	ptr uintptr
	typ reflect.Type
}

type cloner struct {
	seen map[visit]reflect.Value
}

func (c cloner) clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		clone := reflect.New(v.Type().Elem())
		c.seen[key] = clone
		clone.Elem().Set(c.clone(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := c.clone(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		if v.Type() == timeType {
			return clone
		}
		for i := 0; i < clone.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				// unexported: reach it through its address in the copy
				field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
			}
			field.Set(c.clone(field))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if done, ok := c.seen[key]; ok {
			return done
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		c.seen[key] = clone
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), c.clone(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(c.clone(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(c.clone(v.Index(i)))
		}
		return clone
	default:
		// scalars, funcs and channels are copied by value
		return v
	}
}
