package helpers

import (
	"strings"
	"time"
)

// DeepClone copies maps and slices recursively. Other values are returned
// as is.
func DeepClone(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		cloned := make(map[string]interface{}, len(v))
		for k, item := range v {
			cloned[k] = DeepClone(item)
		}
		return cloned
	case []interface{}:
		cloned := make([]interface{}, len(v))
		for i, item := range v {
			cloned[i] = DeepClone(item)
		}
		return cloned
	case time.Time:
		return v
	}
	return value
}

// DeepMerge merges objects left to right. Nested maps are merged, every
// other value is overwritten by later objects.
func DeepMerge(objects ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for _, obj := range objects {
		for k, value := range obj {
			if nested, ok := value.(map[string]interface{}); ok {
				existing, _ := result[k].(map[string]interface{})
				result[k] = DeepMerge(existing, nested)
				continue
			}
			result[k] = value
		}
	}
	return result
}

// GetNestedValue reads a dot-separated path such as "user.profile.bio".
func GetNestedValue(obj map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetNestedValue writes value at a dot-separated path, creating or replacing
// intermediate maps as needed.
func SetNestedValue(obj map[string]interface{}, path string, value interface{}) {
	keys := strings.Split(path, ".")
	current := obj
	for _, key := range keys[:len(keys)-1] {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[key] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}

// Pick returns a copy of obj restricted to keys.
func Pick(obj map[string]interface{}, keys ...string) map[string]interface{} {
	result := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			result[k] = v
		}
	}
	return result
}

// Omit returns a copy of obj without keys.
func Omit(obj map[string]interface{}, keys ...string) map[string]interface{} {
	result := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		result[k] = v
	}
	for _, k := range keys {
		delete(result, k)
	}
	return result
}
