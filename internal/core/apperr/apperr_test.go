package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := Conflict("absence.overlap", "requested range overlaps an existing absence")
	detailed := sentinel.WithDetail("conflicting_request_id", "req-1")

	if !errors.Is(detailed, sentinel) {
		t.Fatalf("expected detailed copy to match its sentinel")
	}

	other := Conflict("absence.booking_contention", "concurrent booking detected")
	if errors.Is(detailed, other) {
		t.Fatalf("expected different codes not to match")
	}
}

func TestError_IsMatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	sentinel := Validation("user.invalid_name", "name must not be blank")
	wrapped := fmt.Errorf("create user: %w", sentinel)

	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("expected fmt-wrapped error to match sentinel")
	}
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NotFound("feedback.not_found", "feedback not found")
	_ = sentinel.WithDetail("feedback_id", "fb-9")

	if sentinel.Details != nil {
		t.Fatalf("expected sentinel to stay detail-free, got %v", sentinel.Details)
	}
}

func TestWithCause_UnwrapsToCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := Internal("db.unreachable", "database unreachable").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Kind("")},
		{"validation", Validation("x.bad", "bad"), KindValidation},
		{"permission", PermissionDenied("x.denied", "denied"), KindPermission},
		{"conflict", ErrSerialization, KindConflict},
		{"deleted", DeletedState("x.deleted", "deleted"), KindDeletedState},
		{"wrapped", fmt.Errorf("op: %w", External("x.down", "down")), KindExternal},
		{"foreign", errors.New("plain"), KindInternal},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%s: expected kind %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestCodeOfAndDetailsOf(t *testing.T) {
	t.Parallel()

	err := Conflict("absence.overlap", "overlap").WithDetail("conflicting_request_id", "req-7")

	if got := CodeOf(err); got != "absence.overlap" {
		t.Errorf("expected code absence.overlap, got %q", got)
	}
	if got := DetailsOf(err)["conflicting_request_id"]; got != "req-7" {
		t.Errorf("expected detail req-7, got %q", got)
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Errorf("expected empty code for foreign error")
	}
	if DetailsOf(errors.New("plain")) != nil {
		t.Errorf("expected nil details for foreign error")
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	withMessage := Validation("user.invalid_email", "invalid email")
	if withMessage.Error() != "user.invalid_email: invalid email" {
		t.Errorf("unexpected message: %s", withMessage.Error())
	}

	bare := &Error{Kind: KindInternal, Code: "db.unreachable"}
	if bare.Error() != "db.unreachable" {
		t.Errorf("unexpected bare message: %s", bare.Error())
	}
}
