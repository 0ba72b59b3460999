package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInternal, http.StatusInternalServerError},
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeTimeout, http.StatusRequestTimeout},
	}

	for _, tc := range cases {
		err := NewBusiness("x", tc.code).(*Error)
		if got := err.StatusCode(); got != tc.want {
			t.Fatalf("status for %v = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestNewServerWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewServer(cause)

	var gErr *Error
	if !errors.As(err, &gErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gErr.Type() != TypeServer || gErr.Code() != CodeInternal {
		t.Fatalf("type/code = %v/%v", gErr.Type(), gErr.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause must be reachable through Unwrap")
	}
	if gErr.Error() != "connection refused" {
		t.Fatalf("Error() = %q, want the cause", gErr.Error())
	}
	if gErr.Msg() != "Internal server error" {
		t.Fatalf("Msg() = %q", gErr.Msg())
	}
}

func TestNewBusinessFieldsCarriesPairs(t *testing.T) {
	err := NewBusinessFields("invalid code", CodeUnauthorized,
		"remaining_attempts", "4", "dangling").(*Error)

	if err.Fields()["remaining_attempts"] != "4" {
		t.Fatalf("fields = %v", err.Fields())
	}
	if _, ok := err.Fields()["dangling"]; ok {
		t.Fatal("a key without a value must be dropped")
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(ErrNotFound, ErrConflict) {
		t.Fatal("sentinels must not alias each other")
	}
	wrapped := fmt.Errorf("lookup user: %w", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatal("wrapped sentinel must still match")
	}
}
