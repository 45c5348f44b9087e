package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   Kind
		status int
	}{
		{"validation", Validation("bad"), KindValidation, http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("no"), KindUnauthenticated, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), KindForbidden, http.StatusForbidden},
		{"not found", NotFound("gone"), KindNotFound, http.StatusNotFound},
		{"conflict", Conflict("dup"), KindConflict, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("ctx: %w", NotFound("gone")), KindNotFound, http.StatusNotFound},
		{"foreign", errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			if got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
			if got.HTTPStatus() != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", got.HTTPStatus(), tt.status)
			}
		})
	}
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)

	if Message(err) != "Server error" {
		t.Errorf("unexpected message %q", Message(err))
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if Message(errors.New("raw")) != "Server error" {
		t.Error("foreign errors must not leak their text")
	}
}

func TestForbiddenCause(t *testing.T) {
	type policyErr struct{ error }
	cause := policyErr{errors.New("denied")}
	err := ForbiddenCause("Access denied", cause)

	var target policyErr
	if !errors.As(err, &target) {
		t.Error("expected policy error to be reachable")
	}
	if !Is(err, KindForbidden) {
		t.Error("expected forbidden kind")
	}
}
