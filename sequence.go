package settings

import "reflect"

// sequenceElements returns the elements of a Sequence or a Go slice.
func sequenceElements(value any) ([]any, bool) {
	if seq, ok := value.(Sequence); ok {
		return seq.Elements(), true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isSlice(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.IsValid() && rv.Kind() == reflect.Slice
}

// cloneSlice returns a new slice of the same type holding the same elements.
// Elements are copied shallowly.
func cloneSlice(value any) any {
	rv := reflect.ValueOf(value)
	if rv.IsNil() {
		return value
	}
	clone := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(clone, rv)
	return clone.Interface()
}

// appendSlice returns a new slice of dst's type holding dst's elements followed
// by elements. The result never shares a backing array with dst.
func appendSlice(dst any, elements []any) (any, error) {
	rv := reflect.ValueOf(dst)
	elemType := rv.Type().Elem()
	converted := make([]reflect.Value, len(elements))
	for i, element := range elements {
		value, ok := assignable(element, elemType)
		if !ok {
			return nil, &TypeError{Want: elemType.String(), Got: typeName(element)}
		}
		converted[i] = value
	}

	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len()+len(converted))
	reflect.Copy(out, rv)
	out = reflect.Append(out, converted...)
	return out.Interface(), nil
}

func assignable(element any, target reflect.Type) (reflect.Value, bool) {
	if element == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
			return reflect.Zero(target), true
		default:
			return reflect.Value{}, false
		}
	}
	value := reflect.ValueOf(element)
	if !value.Type().AssignableTo(target) {
		return reflect.Value{}, false
	}
	return value, true
}
