package validator

import (
	"testing"

	"github.com/exam-portal/portal-client/internal/model"
)

func TestStructValid(t *testing.T) {
	Setup()

	req := model.LoginRequest{Email: "student@example.com", Password: "secret123"}
	if fields := Struct(req); fields != nil {
		t.Fatalf("unexpected validation errors: %v", fields)
	}
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	Setup()

	req := model.LoginRequest{Email: "not-an-email", Password: "abc"}
	fields := Struct(req)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["email"]; !ok {
		t.Errorf("missing email error, got %v", fields)
	}
	if _, ok := fields["password"]; !ok {
		t.Errorf("missing password error, got %v", fields)
	}
}

func TestStructRequired(t *testing.T) {
	Setup()

	fields := Struct(model.LoginRequest{})
	if len(fields) != 2 {
		t.Fatalf("fields = %v, want errors on both inputs", fields)
	}
}

func TestRegisterRequest(t *testing.T) {
	Setup()

	ok := model.RegisterRequest{Name: "Student", Email: "s@example.com", Password: "secret123"}
	if fields := Struct(ok); fields != nil {
		t.Fatalf("unexpected errors: %v", fields)
	}

	bad := model.RegisterRequest{Name: "", Email: "s@example.com", Password: "secret123"}
	if fields := Struct(bad); fields == nil {
		t.Fatal("expected an error for the missing name")
	}
}
