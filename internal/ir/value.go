package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface for values that can be canonically encoded.
// Only String, Int, Bool, Array and Object implement it.
type Value interface {
	canonicalValue()
}

// String is a canonical string value.
type String string

func (String) canonicalValue() {}

// Int is a canonical integer value. There is no float counterpart.
type Int int64

func (Int) canonicalValue() {}

// Bool is a canonical boolean value.
type Bool bool

func (Bool) canonicalValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) canonicalValue() {}

// Object maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) canonicalValue() {}

// Strings converts a string slice to an Array of String values.
func Strings(ss []string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's string ordering is UTF-8 based and differs for astral characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
