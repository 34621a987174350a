package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestEnrollTOTPIsIdempotent(t *testing.T) {
	te := newTestEngine(t)
	user, _ := signUp(t, te, "alice@example.com", "correct-horse")
	ctx := context.Background()

	first, err := te.EnrollTOTP(ctx, user.ID)
	if err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}
	if first.Secret == "" {
		t.Fatal("expected non-empty secret")
	}

	second, err := te.EnrollTOTP(ctx, user.ID)
	if err != nil {
		t.Fatalf("second EnrollTOTP failed: %v", err)
	}
	if second.Secret != first.Secret {
		t.Fatalf("expected identical secret on re-enrollment, got %q then %q", first.Secret, second.Secret)
	}
	if second.ProvisionURI != first.ProvisionURI {
		t.Fatal("expected identical provisioning URI on re-enrollment")
	}

	if te.store.get(t, user.ID).TOTPEnabled {
		t.Fatal("enrollment alone must not enable two-factor")
	}
}

func TestEnrollTOTPProvisionURI(t *testing.T) {
	te := newTestEngine(t)
	user, _ := signUp(t, te, "alice@example.com", "correct-horse")

	enrollment, err := te.EnrollTOTP(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}

	uri := enrollment.ProvisionURI
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected URI scheme: %q", uri)
	}
	for _, want := range []string{"secret=" + enrollment.Secret, "issuer=authgate", "digits=6", "period=30"} {
		if !strings.Contains(uri, want) {
			t.Fatalf("URI %q missing %q", uri, want)
		}
	}
}

func TestConfirmTOTPEnablesOnce(t *testing.T) {
	te := newTestEngine(t)
	user, _ := signUp(t, te, "alice@example.com", "correct-horse")
	ctx := context.Background()

	enrollment, err := te.EnrollTOTP(ctx, user.ID)
	if err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}

	code := totpCodeAt(t, te, enrollment.Secret, te.clock.Now())
	if err := te.ConfirmTOTP(ctx, user.ID, code); err != nil {
		t.Fatalf("ConfirmTOTP failed: %v", err)
	}
	if !te.store.get(t, user.ID).TOTPEnabled {
		t.Fatal("expected two-factor enabled after confirmation")
	}

	// Repeat confirmation is a no-op, not a toggle.
	if err := te.ConfirmTOTP(ctx, user.ID, code); err != nil {
		t.Fatalf("repeat ConfirmTOTP failed: %v", err)
	}
	if !te.store.get(t, user.ID).TOTPEnabled {
		t.Fatal("expected two-factor to stay enabled")
	}
}

func TestConfirmTOTPWrongCodeLeavesDisabled(t *testing.T) {
	te := newTestEngine(t)
	user, _ := signUp(t, te, "alice@example.com", "correct-horse")
	ctx := context.Background()

	if _, err := te.EnrollTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}

	if err := te.ConfirmTOTP(ctx, user.ID, "000000"); !errors.Is(err, ErrTOTPInvalid) {
		t.Fatalf("expected ErrTOTPInvalid, got %v", err)
	}
	if te.store.get(t, user.ID).TOTPEnabled {
		t.Fatal("failed confirmation must not enable two-factor")
	}
}

func TestConfirmTOTPWithoutEnrollment(t *testing.T) {
	te := newTestEngine(t)
	user, _ := signUp(t, te, "alice@example.com", "correct-horse")

	err := te.ConfirmTOTP(context.Background(), user.ID, "123456")
	if !errors.Is(err, ErrTOTPNotConfigured) {
		t.Fatalf("expected ErrTOTPNotConfigured, got %v", err)
	}
}

func TestEnrollTOTPSecretsAreUniquePerUser(t *testing.T) {
	te := newTestEngine(t)
	alice, _ := signUp(t, te, "alice@example.com", "correct-horse")
	bob, _ := signUp(t, te, "bob@example.com", "battery-staple")
	ctx := context.Background()

	a, err := te.EnrollTOTP(ctx, alice.ID)
	if err != nil {
		t.Fatalf("EnrollTOTP alice failed: %v", err)
	}
	b, err := te.EnrollTOTP(ctx, bob.ID)
	if err != nil {
		t.Fatalf("EnrollTOTP bob failed: %v", err)
	}
	if a.Secret == b.Secret {
		t.Fatal("expected distinct secrets per user")
	}
}
