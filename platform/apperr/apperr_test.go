package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("lead not found"), http.StatusNotFound},
		{Validation("horizonDays must be >= 0"), http.StatusBadRequest},
		{BadRequest("invalid body"), http.StatusBadRequest},
		{Conflict("duplicate"), http.StatusConflict},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{Unavailable("storage disabled"), http.StatusServiceUnavailable},
		{Internal("boom"), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Fatalf("%q: expected status %d, got %d", tc.err.Message, tc.want, got)
		}
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	base := Validation("column Notes failed")
	wrapped := fmt.Errorf("export: %w", base)

	if !Is(wrapped, KindValidation) {
		t.Fatalf("expected wrapped error to keep validation kind, got %v", GetKind(wrapped))
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("plain errors should report KindUnknown")
	}
}

func TestErrorMessageIncludesOpAndCause(t *testing.T) {
	cause := errors.New("extract failed")
	err := Wrap(KindValidation, "invalid column", cause).WithOp("exports.Export")

	if got := err.Error(); got != "exports.Export: invalid column: extract failed" {
		t.Fatalf("unexpected message: %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
}
