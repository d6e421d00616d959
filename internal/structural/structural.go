// Package structural provides deep equality and deep hashing over JSON-like
// values: nil, bool, number, string, []interface{} and map[string]interface{}.
// This is the exact shape of decoded JSON, and the shape of variables,
// identifying fields and response payloads exchanged with the cache.
//
// Both functions are pure and safe for concurrent use.
package structural

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
)

// Equals reports whether a and b are structurally equal.
//
// Map key order is irrelevant, list order is significant. All Go numeric
// types (and json.Number) are treated as the single JSON number kind and
// compared by value, so int(1) equals float64(1) but never "1".
// Comparing values of different kinds yields false, never a panic.
// Inputs outside the JSON-like domain fall back to Go primitive equality.
func Equals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		if len(av) != 0 && reflect.ValueOf(av).Pointer() == reflect.ValueOf(bv).Pointer() {
			// same underlying map
			return true
		}
		for key, aChild := range av {
			bChild, ok := bv[key]
			if !ok || !Equals(aChild, bChild) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		if len(av) != 0 && reflect.ValueOf(av).Pointer() == reflect.ValueOf(bv).Pointer() {
			return true
		}
		for i, aChild := range av {
			if !Equals(aChild, bv[i]) {
				return false
			}
		}
		return true

	case string:
		bv, ok := b.(string)
		return ok && av == bv

	case bool:
		bv, ok := b.(bool)
		return ok && av == bv

	default:
		aNum, ok := numberValue(a)
		if !ok {
			// outside the documented domain. primitive fallback.
			return a == b
		}
		bNum, ok := numberValue(b)
		return ok && aNum == bNum
	}
}

// per-kind seeds keep e.g. the empty map, the empty list and the empty
// string from hashing alike.
const (
	tagNull uint64 = iota + 1
	tagBool
	tagNumber
	tagString
	tagList
	tagMap
)

const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// Hash returns a deep hash consistent with Equals: Equals(a, b) implies
// Hash(a) == Hash(b). Map entries are folded in sorted key order so that
// two equal maps hash equal regardless of their internal iteration order.
// Lists are folded in element order. Total over JSON-like input.
func Hash(v interface{}) uint64 {
	if v == nil {
		return mix(fnvOffset64, tagNull)
	}

	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		h := mix(fnvOffset64, tagMap)
		h = mix(h, uint64(len(val)))
		for _, key := range keys {
			h = mix(h, hashString(key))
			h = mix(h, Hash(val[key]))
		}
		return h

	case []interface{}:
		h := mix(fnvOffset64, tagList)
		h = mix(h, uint64(len(val)))
		for _, child := range val {
			h = mix(h, Hash(child))
		}
		return h

	case string:
		return mix(mix(fnvOffset64, tagString), hashString(val))

	case bool:
		h := mix(fnvOffset64, tagBool)
		if val {
			return mix(h, 1)
		}
		return mix(h, 0)

	default:
		num, ok := numberValue(v)
		if !ok {
			// outside the documented domain. stable per-literal fallback.
			return mix(mix(fnvOffset64, tagString), hashString(reflect.TypeOf(v).String()))
		}
		if num == 0 {
			// -0.0 equals 0.0 but carries a different bit pattern.
			num = 0
		}
		return mix(mix(fnvOffset64, tagNumber), math.Float64bits(num))
	}
}

// mix folds x into h, FNV-1a style, one byte at a time. order-sensitive.
func mix(h, x uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= x & 0xff
		h *= fnvPrime64
		x >>= 8
	}
	return h
}

func hashString(s string) uint64 {
	h := fnvOffset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

// numberValue normalizes every numeric representation produced by JSON
// decoding or Go literals to float64. JSON numbers are doubles, so this
// matches the wire semantics.
func numberValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
