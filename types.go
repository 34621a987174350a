package authgate

import "context"

// UserRecord is the full account record exchanged with a [CredentialStore].
// Timestamps are epoch milliseconds. ResetCode/ResetExpiresAt are either both
// zero-valued or both set; TOTPEnabled true implies TOTPSecret is non-empty.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PictureURI   string
	PasswordHash string

	TOTPSecret  string
	TOTPEnabled bool

	ResetCode      string
	ResetExpiresAt int64

	LastAccessAt int64
	CreatedAt    int64
}

// CredentialStore is the persistence boundary for user records. The engine
// owns no user-record storage of its own; every implementation must return
// [ErrUserNotFound] from Find methods that match nothing and [ErrEmailTaken]
// from Create on a duplicate email. Save is a full-record replace,
// last-write-wins.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (UserRecord, error)
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByResetCode(ctx context.Context, code string) (UserRecord, error)
	FindByTOTPSecret(ctx context.Context, secret string) (UserRecord, error)
	Create(ctx context.Context, user UserRecord) error
	Save(ctx context.Context, user UserRecord) error
}

// Identity is the decoded result of a successful token validation.
//
// ShortLived marks a step-up token: the holder has passed password
// verification only and may complete a pending second-factor challenge,
// nothing else. The authorization layer must check this flag; the session
// registry never sees step-up tokens.
type Identity struct {
	UserID     string
	DeviceName string
	ShortLived bool
}

// SignInResult is returned by [Engine.SignIn], [Engine.CompleteTwoFactorSignIn],
// and [Engine.CreateAccount].
//
// When TwoFactorRequired is set, Token carries a short-lived step-up token
// and User is nil — the caller has not proven identity yet.
type SignInResult struct {
	Token             string
	TwoFactorRequired bool
	User              *UserRecord
}

// CreateAccountInput is the input for [Engine.CreateAccount].
type CreateAccountInput struct {
	Name       string
	Email      string
	Password   string
	PictureURI string
	DeviceName string
}

// TOTPEnrollment is returned by [Engine.EnrollTOTP]. Secret is the shared
// base32 secret; ProvisionURI is the otpauth:// URI for authenticator apps.
type TOTPEnrollment struct {
	Secret       string
	ProvisionURI string
}
