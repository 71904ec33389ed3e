// Copyright 2023 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"math"
	"reflect"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Unmarshal converts a starlark value into a go value of type T.
//
// Struct fields are matched with starlark struct attributes and keyword
// arguments by their `star:"name"` tag, or by their field name if they have no
// tag. Fields without a matching attribute keep their zero value, and None
// unmarshals to the zero value of any type.
func Unmarshal[T any](value starlark.Value) (T, error) {
	x, err := UnmarshalReflect(value, reflect.TypeOf((*T)(nil)).Elem())
	return x.Interface().(T), err
}

func UnmarshalReflect(value starlark.Value, ty reflect.Type) (reflect.Value, error) {
	if ty == reflect.TypeOf((*starlark.Value)(nil)).Elem() {
		return reflect.ValueOf(value), nil
	}
	zero := reflect.Zero(ty)
	if value == nil {
		panic("nil value")
	}
	if _, ok := value.(starlark.NoneType); ok {
		return zero, nil
	}
	var result reflect.Value
	if ty.Kind() == reflect.Interface {
		var err error
		ty, err = typeOfStarlarkValue(value)
		if err != nil {
			return zero, err
		}
	}
	if ty.Kind() == reflect.Map {
		result = reflect.MakeMap(ty)
	} else {
		result = reflect.Indirect(reflect.New(ty))
	}

	switch v := value.(type) {
	case starlark.String:
		if result.Type().Kind() != reflect.String {
			return zero, typeError(v, result)
		}
		result.SetString(v.GoString())
	case starlark.Int:
		signedValue, signedOk := v.Int64()
		switch result.Type().Kind() {
		case reflect.Int64:
			if !signedOk {
				return zero, fmt.Errorf("starlark int didn't fit in go int64")
			}
			result.SetInt(signedValue)
		case reflect.Int:
			if !signedOk || signedValue > math.MaxInt || signedValue < math.MinInt {
				return zero, fmt.Errorf("starlark int didn't fit in go int")
			}
			result.SetInt(signedValue)
		default:
			return zero, typeError(v, result)
		}
	case starlark.Bool:
		if result.Type().Kind() != reflect.Bool {
			return zero, typeError(v, result)
		}
		result.SetBool(bool(v))
	case starlark.Indexable:
		// Lists and tuples.
		if result.Type().Kind() != reflect.Slice {
			return zero, typeError(v, result)
		}
		elemType := result.Type().Elem()
		for i := 0; i < v.Len(); i++ {
			elem, err := UnmarshalReflect(v.Index(i), elemType)
			if err != nil {
				return zero, err
			}
			result = reflect.Append(result, elem)
		}
	case *starlark.Dict:
		if result.Type().Kind() != reflect.Map {
			return zero, typeError(v, result)
		}
		keyType := result.Type().Key()
		valueType := result.Type().Elem()
		for _, pair := range v.Items() {
			key := pair.Index(0)
			value := pair.Index(1)

			unmarshalledKey, err := UnmarshalReflect(key, keyType)
			if err != nil {
				return zero, err
			}
			unmarshalledValue, err := UnmarshalReflect(value, valueType)
			if err != nil {
				return zero, fmt.Errorf("%s: %w", key, err)
			}

			result.SetMapIndex(unmarshalledKey, unmarshalledValue)
		}
	case *starlarkstruct.Struct:
		if result.Type().Kind() != reflect.Struct {
			return zero, typeError(v, result)
		}
		for _, attrName := range v.AttrNames() {
			attr, err := v.Attr(attrName)
			if err != nil {
				return zero, err
			}

			resultField := fieldByStarName(result, attrName)
			if !resultField.IsValid() {
				return zero, fmt.Errorf("unexpected keyword argument %q", attrName)
			}
			x, err := UnmarshalReflect(attr, resultField.Type())
			if err != nil {
				return zero, fmt.Errorf("%s: %w", attrName, err)
			}
			resultField.Set(x)
		}
	default:
		return zero, fmt.Errorf("unimplemented starlark type: %s", value.Type())
	}

	return result, nil
}

// UnmarshalKwargs unmarshals the keyword arguments of a builtin call into a
// struct of type T.
func UnmarshalKwargs[T any](kwargs []starlark.Tuple) (T, error) {
	return Unmarshal[T](starlarkstruct.FromKeywords(starlarkstruct.Default, kwargs))
}

func typeError(v starlark.Value, result reflect.Value) error {
	return fmt.Errorf("starlark type was %s, but %s requested", v.Type(), result.Type().Kind().String())
}

// starName returns the name of a struct field as seen from starlark.
func starName(field reflect.StructField) string {
	if name, ok := field.Tag.Lookup("star"); ok {
		return name
	}
	return field.Name
}

func fieldByStarName(v reflect.Value, name string) reflect.Value {
	ty := v.Type()
	for i := 0; i < ty.NumField(); i++ {
		field := ty.Field(i)
		if field.PkgPath != "" {
			continue
		}
		if starName(field) == name {
			return v.Field(i)
		}
	}
	return reflect.Value{}
}

func typeOfStarlarkValue(value starlark.Value) (reflect.Type, error) {
	var err error
	switch v := value.(type) {
	case starlark.String:
		return reflect.TypeOf(""), nil
	case *starlark.List:
		innerType := reflect.TypeOf("")
		if v.Len() > 0 {
			innerType, err = typeOfStarlarkValue(v.Index(0))
			if err != nil {
				return nil, err
			}
		}
		for i := 1; i < v.Len(); i++ {
			innerTypeI, err := typeOfStarlarkValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			if innerType != innerTypeI {
				return nil, fmt.Errorf("List must contain elements of entirely the same type, found %v and %v", innerType, innerTypeI)
			}
		}
		return reflect.SliceOf(innerType), nil
	case *starlark.Dict:
		keyType := reflect.TypeOf("")
		valueType := reflect.TypeOf("")
		for i, pair := range v.Items() {
			keyTypeI, err := typeOfStarlarkValue(pair.Index(0))
			if err != nil {
				return nil, err
			}
			valueTypeI, err := typeOfStarlarkValue(pair.Index(1))
			if err != nil {
				return nil, err
			}
			if i == 0 {
				keyType, valueType = keyTypeI, valueTypeI
				continue
			}
			if keyType != keyTypeI {
				return nil, fmt.Errorf("dict must contain elements of entirely the same type, found %v and %v", keyType, keyTypeI)
			}
			if valueType.Kind() != reflect.Interface && valueTypeI != valueType {
				// If we see conflicting value types, change the result value type to an empty interface
				valueType = reflect.TypeOf([]interface{}{}).Elem()
			}
		}
		return reflect.MapOf(keyType, valueType), nil
	case starlark.Int:
		return reflect.TypeOf(0), nil
	case starlark.Bool:
		return reflect.TypeOf(true), nil
	default:
		return nil, fmt.Errorf("unimplemented starlark type: %s", value.Type())
	}
}
