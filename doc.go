// Package authgate provides an authentication and session engine with
// encrypted opaque bearer tokens, a Redis-backed multi-device session
// registry, TOTP-based two-factor sign-in, and a one-time-code password
// recovery flow.
//
// The package is designed for concurrent request-handling workloads: Engine
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Identity, SignInResult, TOTPEnrollment, etc.). Relational
// persistence of user records sits behind the [CredentialStore] interface
// (the postgres subpackage supplies the reference implementation) and mail
// delivery behind the mailer subpackage's interface. Transport concerns stay
// outside: the middleware subpackage adapts the engine to HTTP bearer
// headers, nothing more.
//
// # Token protocol
//
// Both token families — standard session tokens and short-lived step-up
// tokens issued between password and second-factor verification — are sealed
// with authenticated symmetric encryption by the token subpackage. A standard
// token is only valid while its exact ciphertext is a member of the holder's
// session list; a step-up token is never registered and dies by its embedded
// expiry alone.
//
// # Consistency
//
// Session lists are updated with plain read-modify-write cycles on a single
// Redis key. Two concurrent sign-ins for the same user can therefore lose one
// of the two new rows; callers who need stronger guarantees must serialize
// per-user writes themselves. See the session subpackage.
package authgate
