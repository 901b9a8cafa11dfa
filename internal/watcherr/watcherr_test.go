package watcherr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(NotFound("no such row")); got != KindNotFound {
		t.Errorf("KindOf = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("plain error should be internal, got %v", got)
	}
	if got := KindOf(nil); got != KindInternal {
		t.Errorf("nil should be internal, got %v", got)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := Conflict("already complete")
	wrapped := fmt.Errorf("completing report: %w", inner)
	if !IsKind(wrapped, KindConflict) {
		t.Error("conflict kind lost through fmt.Errorf wrapping")
	}
	if IsKind(nil, KindInternal) {
		t.Error("nil error must not match any kind")
	}
}

func TestErrorMessageFormats(t *testing.T) {
	base := errors.New("row locked")
	cases := []struct {
		err  *Error
		want string
	}{
		{ConstraintViolation("value %d too large", 7), "value 7 too large"},
		{Wrap(KindInternal, base, "saving attribute"), "saving attribute: row locked"},
		{&Error{Kind: KindConflict}, "conflict"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("base")
	err := Internal(base, "outer")
	if !errors.Is(err, base) {
		t.Error("Internal should wrap the base error")
	}
}
