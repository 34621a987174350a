package authgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/kharland/authgate/session"
	"github.com/kharland/authgate/token"
)

// SignIn verifies an email/password pair for a device.
//
// Without two-factor enabled it issues a standard session token and returns
// the full user. With two-factor enabled it issues only a short-lived step-up
// token and withholds the identity; the caller must finish with
// [Engine.CompleteTwoFactorSignIn] before the step-up window closes.
func (e *Engine) SignIn(ctx context.Context, email, plainPassword, deviceName string) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		return nil, storeErr(err)
	}

	ok, err := e.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricSignInFailure)
		return nil, ErrInvalidCredentials
	}

	user.LastAccessAt = e.now().UnixMilli()
	if err := e.store.Save(ctx, user); err != nil {
		return nil, storeErr(err)
	}

	if user.TOTPEnabled {
		stepUp, err := e.issueStepUp(user.ID, deviceName)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricTwoFactorRequired)
		return &SignInResult{Token: stepUp, TwoFactorRequired: true}, nil
	}

	tok, err := e.issueSession(ctx, user.ID, deviceName)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricSignInSuccess)
	return &SignInResult{Token: tok, User: &user}, nil
}

// CompleteTwoFactorSignIn exchanges a live step-up token plus a valid TOTP
// code for a standard session token and the full identity. Standard tokens
// are rejected here: only the step-up capability may complete a pending
// challenge.
func (e *Engine) CompleteTwoFactorSignIn(ctx context.Context, stepUpToken, code string) (*SignInResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	payload, err := e.codec.Decode(stepUpToken)
	if err != nil {
		e.metricInc(MetricTwoFactorFailure)
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, token.ErrTampered)
	}
	if !payload.ShortLived {
		e.metricInc(MetricTwoFactorFailure)
		return nil, ErrTokenInvalid
	}
	if e.now().UnixMilli() >= payload.ExpiresAt {
		e.metricInc(MetricTwoFactorFailure)
		return nil, ErrTokenExpired
	}

	user, err := e.store.FindByID(ctx, payload.UserID)
	if err != nil {
		e.metricInc(MetricTwoFactorFailure)
		return nil, storeErr(err)
	}
	if user.TOTPSecret == "" {
		e.metricInc(MetricTwoFactorFailure)
		return nil, ErrTOTPNotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TOTPSecret, code, e.now())
	if err != nil || !ok {
		e.metricInc(MetricTwoFactorFailure)
		return nil, ErrTOTPInvalid
	}

	user.LastAccessAt = e.now().UnixMilli()
	if err := e.store.Save(ctx, user); err != nil {
		return nil, storeErr(err)
	}

	tok, err := e.issueSession(ctx, user.ID, payload.DeviceName)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricTwoFactorSuccess)
	return &SignInResult{Token: tok, User: &user}, nil
}

// Validate resolves a bearer token to an [Identity].
//
// A step-up token is checked against its embedded deadline only — it is
// never a registry member. A standard token must still sit, byte for byte,
// in the holder's session list; validation advances the row's LastAccessAt.
// Decode failures of any kind collapse to [ErrTokenInvalid] with no
// cryptographic detail attached.
func (e *Engine) Validate(ctx context.Context, tok string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	payload, err := e.codec.Decode(tok)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, token.ErrTampered)
	}

	if payload.ShortLived {
		if e.now().UnixMilli() >= payload.ExpiresAt {
			e.metricInc(MetricTokenRejected)
			return nil, ErrTokenExpired
		}
		e.metricInc(MetricTokenValidated)
		return &Identity{
			UserID:     payload.UserID,
			DeviceName: payload.DeviceName,
			ShortLived: true,
		}, nil
	}

	found, err := e.sessions.Touch(ctx, payload.UserID, tok, e.now())
	if err != nil {
		return nil, storeErr(err)
	}
	if !found {
		e.metricInc(MetricTokenRejected)
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricTokenValidated)
	return &Identity{
		UserID:     payload.UserID,
		DeviceName: payload.DeviceName,
	}, nil
}

// Sessions lists the user's active device sessions.
func (e *Engine) Sessions(ctx context.Context, userID string) ([]session.Row, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	rows, err := e.sessions.List(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return rows, nil
}

// SignOut revokes one session by its exact token.
func (e *Engine) SignOut(ctx context.Context, userID, tok string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.Remove(ctx, userID, tok); err != nil {
		return storeErr(err)
	}
	e.metricInc(MetricSessionRevoked)
	return nil
}

// SignOutAll revokes every session the user holds.
func (e *Engine) SignOutAll(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if err := e.sessions.RemoveAll(ctx, userID); err != nil {
		return storeErr(err)
	}
	e.metricInc(MetricSignOutAll)
	return nil
}

// IsTampered reports whether a Validate error came from a token that never
// decoded, as opposed to one that decoded but was rejected. Transport layers
// use the distinction to stay silent about garbage while surfacing real
// authentication failures.
func IsTampered(err error) bool {
	return errors.Is(err, token.ErrTampered)
}
