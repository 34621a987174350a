package authgate

import "errors"

var (
	// ErrUnauthorized is returned when a caller presents no usable identity
	// for an operation that requires one.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned when a password does not match the
	// stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no user record matches the lookup.
	// CredentialStore implementations must return it (possibly wrapped) from
	// every Find method that comes up empty.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by CreateAccount when the email is already
	// registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenInvalid is returned for tokens that fail decryption, fail to
	// parse, or are not members of the holder's session list. Cryptographic
	// detail never leaks past this error.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed step-up token whose
	// embedded deadline has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTOTPNotConfigured is returned when a second-factor operation runs
	// against a user with no enrolled TOTP secret.
	ErrTOTPNotConfigured = errors.New("totp not configured")
	// ErrTOTPInvalid is returned when a submitted one-time code fails the
	// TOTP check.
	ErrTOTPInvalid = errors.New("invalid totp code")
	// ErrResetCodeNotFound is returned when no user matches the presented
	// reset code and email pair.
	ErrResetCodeNotFound = errors.New("reset code not found")
	// ErrResetCodeExpired is returned when the matched reset code has passed
	// its deadline. The code is cleared on discovery, so a retry with the
	// same code reports ErrResetCodeNotFound.
	ErrResetCodeExpired = errors.New("reset code expired")
	// ErrMailDeliveryFailed is returned when the mail collaborator rejects a
	// reset-code dispatch. State persisted before the dispatch remains valid.
	ErrMailDeliveryFailed = errors.New("failed to deliver reset code")
	// ErrStoreUnavailable wraps credential-store and session-store I/O
	// failures. It is fatal to the current call; nothing retries it.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady is returned when an Engine method runs before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
