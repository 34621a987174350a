package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/kharland/authgate/internal"
)

const resetCodeMaxAttempts = 1000

// RequestPasswordReset issues a one-time numeric code, persists it with its
// deadline on the user record, and mails it.
//
// An unknown email returns success with no side effect: the response must
// not disclose whether an address is registered. A mail failure surfaces
// [ErrMailDeliveryFailed] but leaves the persisted code valid; a retried
// request overwrites it with a fresh code rather than accumulating stale
// state.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err)
	}

	code, err := e.uniqueResetCode(ctx)
	if err != nil {
		return err
	}

	window := e.config.PasswordReset.ExpireWindow
	user.ResetCode = code
	user.ResetExpiresAt = e.now().Add(window).UnixMilli()
	if err := e.store.Save(ctx, user); err != nil {
		return storeErr(err)
	}
	e.metricInc(MetricResetRequested)

	if err := e.mail.SendResetCode(ctx, user.Email, code, window); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDeliveryFailed, err)
	}
	return nil
}

// The code is the lookup key, so it must be unique across users while live.
func (e *Engine) uniqueResetCode(ctx context.Context) (string, error) {
	for i := 0; i < resetCodeMaxAttempts; i++ {
		code, err := internal.NumericCode(e.config.PasswordReset.CodeDigits)
		if err != nil {
			return "", err
		}

		_, err = e.store.FindByResetCode(ctx, code)
		if errors.Is(err, ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", storeErr(err)
		}
	}
	return "", errors.New("reset code generation exhausted retries")
}

// ConfirmPasswordReset consumes a mailed code and sets the new password.
//
// The code and email must match one user together. An expired code is
// cleared the moment it is discovered — single use holds even for failures —
// so the same code then reports not-found. On success every existing session
// is revoked before the new password lands, forcing re-authentication on
// every other device, and a fresh standard token is issued to the requesting
// device.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, newPassword, deviceName string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	user, err := e.store.FindByResetCode(ctx, code)
	if errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricResetFailed)
		return "", ErrResetCodeNotFound
	}
	if err != nil {
		return "", storeErr(err)
	}
	if user.Email != email || user.ResetExpiresAt == 0 {
		e.metricInc(MetricResetFailed)
		return "", ErrResetCodeNotFound
	}

	if e.now().UnixMilli() > user.ResetExpiresAt {
		user.ResetCode = ""
		user.ResetExpiresAt = 0
		if err := e.store.Save(ctx, user); err != nil {
			return "", storeErr(err)
		}
		e.metricInc(MetricResetFailed)
		return "", ErrResetCodeExpired
	}

	if err := e.sessions.RemoveAll(ctx, user.ID); err != nil {
		return "", storeErr(err)
	}
	e.metricInc(MetricSignOutAll)

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}

	user.PasswordHash = hash
	user.ResetCode = ""
	user.ResetExpiresAt = 0
	user.LastAccessAt = e.now().UnixMilli()
	if err := e.store.Save(ctx, user); err != nil {
		return "", storeErr(err)
	}

	tok, err := e.issueSession(ctx, user.ID, deviceName)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricResetConfirmed)
	return tok, nil
}
