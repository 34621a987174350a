// Package middleware adapts the engine to HTTP bearer authentication.
//
// Header parsing deliberately distinguishes silent absence from explicit
// rejection: a missing header, a malformed header, the literal token "null"
// (an unset client template variable), and ciphertext that never decodes all
// yield no identity and no error, while a token that decodes but fails
// registry validation — or an expired step-up token — is a real
// authentication failure the caller must see. Collapsing those branches
// would let an attacker probe which tokens were once genuine.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kharland/authgate"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity stored by [Guard].
func IdentityFromContext(ctx context.Context) (*authgate.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authgate.Identity)
	return id, ok
}

// IdentityFromHeader resolves an Authorization header value to an identity.
// It returns (nil, nil) for every "no identity" shape and an error only for
// tokens that decoded but were rejected.
func IdentityFromHeader(ctx context.Context, engine *authgate.Engine, header string) (*authgate.Identity, error) {
	if header == "" {
		return nil, nil
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return nil, nil
	}

	scheme, tok := parts[0], parts[1]
	if !strings.EqualFold(scheme, "bearer") {
		return nil, nil
	}
	if tok == "" || tok == "null" {
		return nil, nil
	}

	id, err := engine.Validate(ctx, tok)
	if err != nil {
		if authgate.IsTampered(err) {
			return nil, nil
		}
		return nil, err
	}
	return id, nil
}

// Guard requires an authenticated identity and stores it in the request
// context. Step-up identities are rejected unless allowShortLived is set;
// only the second-factor completion route should set it.
func Guard(engine *authgate.Engine, allowShortLived bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := IdentityFromHeader(r.Context(), engine, r.Header.Get("Authorization"))
			if err != nil || id == nil {
				http.Error(w, authgate.ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}
			if id.ShortLived && !allowShortLived {
				http.Error(w, authgate.ErrUnauthorized.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
