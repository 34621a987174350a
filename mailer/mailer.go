// Package mailer delivers password-reset codes. The engine depends only on
// the [Mailer] interface; [Resend] is the production implementation.
package mailer

import (
	"context"
	"time"
)

// Mailer sends a one-time reset code to an address. A returned error means
// the code was not delivered; it says nothing about state already persisted
// by the caller.
type Mailer interface {
	SendResetCode(ctx context.Context, to, code string, expires time.Duration) error
}
