package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kharland/authgate/mailer"
	"github.com/kharland/authgate/password"
	"github.com/kharland/authgate/session"
	"github.com/kharland/authgate/token"
)

// Engine orchestrates the authentication subsystem: credential checks,
// session issuance and revocation, two-factor enrollment/verification, and
// password recovery. Construct it through [Builder.Build]; after that it is
// immutable and safe for concurrent use.
type Engine struct {
	config   Config
	codec    *token.Codec
	sessions *session.Registry
	store    CredentialStore
	mail     mailer.Mailer
	hasher   *password.Argon2
	totp     *totpManager
	metrics  *Metrics

	now func() time.Time
}

// Metrics returns a point-in-time copy of the engine counters.
func (e *Engine) Metrics() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e != nil {
		e.metrics.Inc(id)
	}
}

// storeErr maps credential-store and session-store failures into the public
// taxonomy: not-found passes through, everything else is a storage failure
// fatal to the current call.
func storeErr(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// issueSession encodes a standard payload and registers it in the holder's
// session list.
func (e *Engine) issueSession(ctx context.Context, userID, deviceName string) (string, error) {
	tok, err := e.codec.Encode(token.Payload{
		UserID:     userID,
		DeviceName: deviceName,
	})
	if err != nil {
		return "", err
	}

	if err := e.sessions.Add(ctx, userID, tok, deviceName, e.now()); err != nil {
		return "", storeErr(err)
	}

	e.metricInc(MetricSessionIssued)
	return tok, nil
}

// issueStepUp encodes a short-lived payload with an absolute deadline. The
// token is never registered and can only die by that deadline.
func (e *Engine) issueStepUp(userID, deviceName string) (string, error) {
	return e.codec.Encode(token.Payload{
		UserID:     userID,
		DeviceName: deviceName,
		ShortLived: true,
		ExpiresAt:  e.now().Add(e.config.StepUp.Window).UnixMilli(),
	})
}
