package validator

import (
	"errors"
	"testing"
)

type profileInput struct {
	FullName string `validate:"required,min=3,max=100,alphaspace"`
	Password string `validate:"required,password"`
}

func TestNewV10Validator(t *testing.T) {
	if _, err := NewV10Validator(); err != nil {
		t.Fatalf("new validator: %v", err)
	}
}

func TestV10ValidatorCustomRules(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	if err := v.Validate(profileInput{FullName: "Jane Doe", Password: "s3cret-pass"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	err = v.Validate(profileInput{FullName: "Jane_Doe", Password: "short"})
	var vErr V10ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected V10ValidationError, got %T: %v", err, err)
	}
	if _, ok := vErr.Values()["full_name"]; !ok {
		t.Fatalf("expected full_name in %v", vErr.Values())
	}
	if got := vErr.Values()["password"]; got != "Password must be 8-72 characters" {
		t.Fatalf("password message = %q", got)
	}
}
