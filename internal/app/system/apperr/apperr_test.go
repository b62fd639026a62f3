package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"not found", apperr.NotFound("course not found"), apperr.KindNotFound},
		{"forbidden", apperr.Forbidden("not author"), apperr.KindForbidden},
		{"conflict sentinel", apperr.ErrAlreadyInCart, apperr.KindConflict},
		{"validation", apperr.Validation("price must be >= 0"), apperr.KindValidation},
		{"wrapped conflict", fmt.Errorf("purchase: %w", apperr.ErrAlreadyPurchased), apperr.KindConflict},
		{"foreign error", errors.New("socket closed"), apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := apperr.Conflict(apperr.CodeAlreadyInCart, "custom message")
	if !errors.Is(err, apperr.ErrAlreadyInCart) {
		t.Error("expected errors.Is to match by code")
	}
	if errors.Is(err, apperr.ErrNotInCart) {
		t.Error("different codes must not match")
	}
}

func TestAs_WrapsForeignErrors(t *testing.T) {
	cause := errors.New("connection refused")
	e := apperr.As(cause)
	if e.Kind != apperr.KindInternal {
		t.Errorf("Kind = %v, want internal", e.Kind)
	}
	if !errors.Is(e, cause) {
		t.Error("expected cause to be unwrappable")
	}
}
