package core

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "stream-1", false},
		{"empty name", "", true},
		{"long name", strings.Repeat("a", 256), true},
		{"max length", strings.Repeat("a", 255), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && Code(err) != "INVALID_NAME" {
				t.Errorf("Code() = %q, want INVALID_NAME", Code(err))
			}
		})
	}
}

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"positive", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSize("mailbox size", tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsNil(t *testing.T) {
	var nilPtr *Error
	var nilFunc func()
	var nilMap map[string]int

	tests := []struct {
		name string
		v    interface{}
		want bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", nilPtr, true},
		{"nil func", nilFunc, true},
		{"nil map", nilMap, true},
		{"value", 42, false},
		{"pointer", &Error{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNil(tt.v); got != tt.want {
				t.Errorf("IsNil() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustNotNil(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("MustNotNil(nil) did not panic")
		}
		if !strings.Contains(r.(error).Error(), "fail-fast: sink is nil") {
			t.Errorf("panic = %v", r)
		}
	}()
	MustNotNil("present", "source")
	MustNotNil(nil, "sink")
}
