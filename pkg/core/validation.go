package core

import (
	"fmt"
	"reflect"
	"runtime/debug"
)

// ValidateName validates an actor or stream name
func ValidateName(name string) error {
	if name == "" {
		return &Error{Code: "INVALID_NAME", Message: "name cannot be empty"}
	}
	if len(name) > 255 {
		return &Error{Code: "INVALID_NAME", Message: "name too long (max 255 characters)"}
	}
	return nil
}

// ValidateSize validates a mailbox or buffer size
func ValidateSize(what string, size int) error {
	if size < 1 {
		return &Error{Code: "INVALID_SIZE", Message: what + " must be positive"}
	}
	return nil
}

// IsNil reports whether v is nil, including typed nil pointers, funcs, maps,
// slices, channels and interfaces
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// MustNotNil panics if v is nil (fail-fast principle)
// Used for constructor arguments whose absence is a programming error
func MustNotNil(v interface{}, name string) {
	if IsNil(v) {
		panic(fmt.Errorf("fail-fast: %s is nil\n%s", name, debug.Stack()))
	}
}
