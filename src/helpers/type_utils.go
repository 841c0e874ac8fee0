package helpers

import (
	"math"
	"reflect"
	"time"
)

// IsNil reports whether value is nil, including typed nil pointers, maps,
// slices and funcs.
func IsNil(value interface{}) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func IsNotNil(value interface{}) bool { return !IsNil(value) }

func IsString(value interface{}) bool {
	_, ok := value.(string)
	return ok
}

// IsNumber reports whether value is a numeric kind other than NaN.
func IsNumber(value interface{}) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		return !math.IsNaN(rv.Float())
	}
	return false
}

func IsBoolean(value interface{}) bool {
	_, ok := value.(bool)
	return ok
}

// IsArray reports whether value is a slice or an array.
func IsArray(value interface{}) bool {
	if value == nil {
		return false
	}
	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// IsObject reports whether value is a non-nil map or struct.
func IsObject(value interface{}) bool {
	if IsNil(value) {
		return false
	}
	switch reflect.Indirect(reflect.ValueOf(value)).Kind() {
	case reflect.Map, reflect.Struct:
		return true
	}
	return false
}

func IsFunction(value interface{}) bool {
	return value != nil && reflect.TypeOf(value).Kind() == reflect.Func
}

// IsDate reports whether value is a non-zero time.Time.
func IsDate(value interface{}) bool {
	t, ok := value.(time.Time)
	return ok && !t.IsZero()
}

// IsEmpty reports whether value is nil, an empty string, or an empty slice,
// array or map.
func IsEmpty(value interface{}) bool {
	if IsNil(value) {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
