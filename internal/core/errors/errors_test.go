package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "resource not found")
		if err.Error() != "[NOT_FOUND] resource not found" {
			t.Errorf("expected [NOT_FOUND] resource not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		expected := "[INTERNAL_ERROR] internal failure: original error"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("original error")
		err := Wrap(original, CodeInternal, "internal failure")
		if !IsCode(err, CodeInternal) {
			t.Error("expected IsCode to return true for wrapped CodeInternal")
		}
	})
}

type located struct{ msg string }

func (l *located) Error() string { return l.msg }

func TestDomainErrorUnwrapsToCause(t *testing.T) {
	cause := &located{msg: "main.aga:3:1: unexpected token"}
	err := AddContext(Wrap(cause, CodeBackendFailure, "backend reported a diagnostic"), CtxPath, "main.aga")

	if !IsCode(err, CodeBackendFailure) {
		t.Fatalf("expected BACKEND_FAILURE, got %v", err)
	}
	var target *located
	if !errors.As(err, &target) || target != cause {
		t.Fatalf("expected errors.As to reach the cause, got %v", err)
	}
	want := "[BACKEND_FAILURE] backend reported a diagnostic: main.aga:3:1: unexpected token map[path:main.aga]"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestAddContextWrapsForeignError(t *testing.T) {
	err := AddContext(errors.New("boom"), CtxOperation, "refresh")
	if !IsCode(err, CodeInternal) {
		t.Fatalf("expected INTERNAL_ERROR, got %v", err)
	}
}
