package errors

import (
	"strings"
	"testing"
)

func TestNewIncludesFileAndLine(t *testing.T) {
	err := New("something broke: %d", 42)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "errors_test.go:") {
		t.Errorf("expected file context in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "something broke: 42") {
		t.Errorf("expected formatted message in %q", err.Error())
	}
}

func TestWrapfNil(t *testing.T) {
	if err := Wrapf(nil, "context"); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestWrapfPreservesChain(t *testing.T) {
	base := Tagf(ErrNotFound, "missing file")
	wrapped := Wrapf(base, "loading conversation")
	if !Is(wrapped, ErrNotFound) {
		t.Errorf("expected wrapped error to match ErrNotFound: %v", wrapped)
	}
}

func TestTagfKinds(t *testing.T) {
	tests := []struct {
		name string
		kind error
	}{
		{"not found", ErrNotFound},
		{"parse", ErrParse},
		{"configuration", ErrConfiguration},
		{"unknown provider", ErrUnknownProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Tagf(tt.kind, "details here")
			if !Is(err, tt.kind) {
				t.Errorf("Tagf error does not match its kind: %v", err)
			}
			if !strings.Contains(err.Error(), "details here") {
				t.Errorf("expected message in %q", err.Error())
			}
		})
	}
}
