// Package canon provides deterministic JSON canonicalization and
// content-addressed hashing for the compliance kernel. Every
// provenance_hash in the system is computed the same way: marshal,
// re-sort map keys, hash, truncate.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Marshal produces deterministic JSON: object keys sorted lexically at
// every nesting level, with NaN/Infinity rejected rather than silently
// coerced to null.
func Marshal(v any) ([]byte, error) {
	if hasNaNOrInf(reflect.ValueOf(v)) {
		return nil, fmt.Errorf("canon: value contains NaN or Infinity")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return marshalSorted(m)
}

func marshalSorted(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		result := "{"
		for i, k := range keys {
			if i > 0 {
				result += ","
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			valJSON, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			result += fmt.Sprintf("%s:%s", keyJSON, valJSON)
		}
		result += "}"
		return []byte(result), nil
	case []any:
		result := "["
		for i, item := range val {
			if i > 0 {
				result += ","
			}
			itemJSON, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			result += string(itemJSON)
		}
		result += "]"
		return []byte(result), nil
	default:
		return json.Marshal(v)
	}
}

func hasNaNOrInf(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		return math.IsNaN(f) || math.IsInf(f, 0)
	case reflect.Map:
		for _, key := range v.MapKeys() {
			if hasNaNOrInf(v.MapIndex(key)) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if hasNaNOrInf(v.Index(i)) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if hasNaNOrInf(v.Field(i)) {
				return true
			}
		}
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			return hasNaNOrInf(v.Elem())
		}
	}
	return false
}

// Hash returns the full hex-encoded SHA-256 digest of v's canonical JSON
// encoding.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}

// ShortHash returns the first n hex characters of Hash(v). The kernel
// uses n=16 for provenance_hash.
func ShortHash(v any, n int) (string, error) {
	full, err := Hash(v)
	if err != nil {
		return "", err
	}
	if n > len(full) {
		n = len(full)
	}
	return full[:n], nil
}
