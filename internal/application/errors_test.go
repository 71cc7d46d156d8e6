package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"field": "invalid"}}
	if got := withFields.Error(); got != "validation failed" {
		t.Fatalf("expected consistent message for populated error, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected add to populate map, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.Merge(fmt.Errorf("patch: %w", other))
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy wrapped field, got %q", got)
	}

	base.Merge(nil)
	base.Merge(errors.New("not a validation error"))
	var missing *ValidationError
	base.Merge(missing)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected non-validation errors to leave fields unchanged, got %v", base.FieldErrors)
	}
}

func TestNewValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("name", "name is required")
	if !err.HasErrors() {
		t.Fatalf("expected a populated validation error")
	}
	if got := err.FieldErrors["name"]; got != "name is required" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationError_Fields(t *testing.T) {
	t.Parallel()

	err := &ValidationError{FieldErrors: map[string]string{"website": "x", "name": "y", "companySize": "z"}}
	got := err.Fields()
	want := []string{"companySize", "name", "website"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	var nilErr *ValidationError
	if nilErr.Fields() != nil {
		t.Fatalf("expected nil fields for nil error")
	}
}
