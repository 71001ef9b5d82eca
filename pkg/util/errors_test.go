package util

import (
	"errors"
	"strings"
	"testing"
)

func TestPreconditionError(t *testing.T) {
	err := NewPreconditionError("add_interface", "eth0", "ip and mask must both be set", "host/server interface")

	msg := err.Error()
	if !strings.Contains(msg, "add_interface") {
		t.Errorf("Error message should contain operation: %s", msg)
	}
	if !strings.Contains(msg, "eth0") {
		t.Errorf("Error message should contain resource: %s", msg)
	}
	if !strings.Contains(msg, "ip and mask must both be set") {
		t.Errorf("Error message should contain precondition: %s", msg)
	}
	if !strings.Contains(msg, "host/server interface") {
		t.Errorf("Error message should contain details: %s", msg)
	}

	if !errors.Is(err, ErrPreconditionFailed) {
		t.Errorf("PreconditionError should unwrap to ErrPreconditionFailed")
	}
}

func TestPreconditionErrorNoDetails(t *testing.T) {
	err := NewPreconditionError("create_file", "reports", "folder name required", "")
	msg := err.Error()

	if strings.HasSuffix(msg, "()") {
		t.Errorf("Error message should not have empty details: %s", msg)
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("episode_length must be positive")
		msg := err.Error()
		if !strings.Contains(msg, "episode_length must be positive") {
			t.Errorf("Error message should contain the error: %s", msg)
		}
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("ValidationError should unwrap to ErrValidationFailed")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("link 0: bandwidth_mbps must be positive", "node host1 acl rule 0: action must be permit or deny")
		msg := err.Error()
		if !strings.Contains(msg, "bandwidth_mbps") || !strings.Contains(msg, "acl rule") {
			t.Errorf("Error message should contain all errors: %s", msg)
		}
	})
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(true, "this should not appear")
		v.Add(true, "neither should this")

		if v.HasErrors() {
			t.Error("Should not have errors when all conditions are true")
		}
		if err := v.Build(); err != nil {
			t.Errorf("Build() should return nil when no errors: %v", err)
		}
	})

	t.Run("with errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(false, "link 0 endpoint A: unknown node")
		v.Add(true, "this passes")
		v.Add(false, "link 0 endpoint B: unknown node")
		v.AddError("node host1 acl rule 0: action must be permit or deny")
		v.AddErrorf("link %d: bandwidth_mbps must be positive", 2)

		if !v.HasErrors() {
			t.Error("Should have errors")
		}

		err := v.Build()
		if err == nil {
			t.Fatal("Build() should return error")
		}

		validationErr, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("Expected *ValidationError, got %T", err)
		}
		if len(validationErr.Errors) != 4 {
			t.Errorf("Expected 4 errors, got %d", len(validationErr.Errors))
		}
	})

	t.Run("chaining", func(t *testing.T) {
		err := (&ValidationBuilder{}).
			Add(false, "error1").
			Add(false, "error2").
			AddErrorf("error%d", 3).
			Build()

		if err == nil {
			t.Fatal("Expected error")
		}
		if !strings.Contains(err.Error(), "error1") {
			t.Errorf("Missing error1 in: %s", err.Error())
		}
	})
}

func TestDependencyError(t *testing.T) {
	err := NewDependencyError("link endpoint", "node", "host3")
	msg := err.Error()
	if !strings.Contains(msg, "link endpoint") || !strings.Contains(msg, "node") || !strings.Contains(msg, "host3") {
		t.Errorf("Error message should name resource, kind, and dependency: %s", msg)
	}
	if !errors.Is(err, ErrDependencyMissing) {
		t.Errorf("DependencyError should unwrap to ErrDependencyMissing")
	}
}

func TestInUseError(t *testing.T) {
	err := NewInUseError(`node hostname "host1"`, "an earlier node declaration")
	msg := err.Error()
	if !strings.Contains(msg, "host1") || !strings.Contains(msg, "an earlier node declaration") {
		t.Errorf("Error message should name the resource and its user: %s", msg)
	}
	if !errors.Is(err, ErrInUse) {
		t.Errorf("InUseError should unwrap to ErrInUse")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotConnected,
		ErrPermissionDenied,
		ErrPreconditionFailed,
		ErrValidationFailed,
		ErrNotLocked,
		ErrInUse,
		ErrDependencyMissing,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"PreconditionError", NewPreconditionError("op", "res", "pre", ""), ErrPreconditionFailed},
		{"ValidationError", NewValidationError("msg"), ErrValidationFailed},
		{"DependencyError", NewDependencyError("res", "kind", "dep"), ErrDependencyMissing},
		{"InUseError", NewInUseError("res", "user"), ErrInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
		})
	}
}
