package authgate

import (
	"context"
	"errors"

	"github.com/kharland/authgate/internal"
)

// Secret collisions are astronomically unlikely; the cap only guards against
// a pathological store double.
const totpEnrollMaxAttempts = 1000

// EnrollTOTP provisions a shared secret for the user's authenticator app.
//
// Enrollment is idempotent: an already-enrolled user gets the stored secret
// back and no new one is generated, so an attacker holding a session cannot
// rotate an enabled secret out from under the real second factor. Fresh
// secrets are regenerated until they collide with no other user's.
// Enrollment alone never enables two-factor; [Engine.ConfirmTOTP] does.
func (e *Engine) EnrollTOTP(ctx context.Context, userID string) (*TOTPEnrollment, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}

	if user.TOTPSecret != "" {
		return &TOTPEnrollment{
			Secret:       user.TOTPSecret,
			ProvisionURI: e.totp.ProvisionURI(user.TOTPSecret, user.Email),
		}, nil
	}

	secret, err := e.uniqueTOTPSecret(ctx)
	if err != nil {
		return nil, err
	}

	user.TOTPSecret = secret
	if err := e.store.Save(ctx, user); err != nil {
		return nil, storeErr(err)
	}

	e.metricInc(MetricTOTPEnrolled)
	return &TOTPEnrollment{
		Secret:       secret,
		ProvisionURI: e.totp.ProvisionURI(secret, user.Email),
	}, nil
}

func (e *Engine) uniqueTOTPSecret(ctx context.Context) (string, error) {
	for i := 0; i < totpEnrollMaxAttempts; i++ {
		secret, err := internal.NewTOTPSecret()
		if err != nil {
			return "", err
		}

		_, err = e.store.FindByTOTPSecret(ctx, secret)
		if errors.Is(err, ErrUserNotFound) {
			return secret, nil
		}
		if err != nil {
			return "", storeErr(err)
		}
		// Taken; generate again.
	}
	return "", errors.New("totp secret generation exhausted retries")
}

// ConfirmTOTP verifies a code from the user's authenticator and, on the
// first success, enables two-factor sign-in. The transition is one-way in
// this subsystem and repeat confirmations stay enabled.
func (e *Engine) ConfirmTOTP(ctx context.Context, userID, code string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err)
	}
	if user.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}

	ok, err := e.totp.VerifyCode(user.TOTPSecret, code, e.now())
	if err != nil || !ok {
		return ErrTOTPInvalid
	}

	if !user.TOTPEnabled {
		user.TOTPEnabled = true
		if err := e.store.Save(ctx, user); err != nil {
			return storeErr(err)
		}
		e.metricInc(MetricTOTPConfirmed)
	}
	return nil
}
