package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kharland/authgate"
	"github.com/kharland/authgate/middleware"
	"github.com/kharland/authgate/password"
)

type mapStore struct {
	mu    sync.Mutex
	users map[string]authgate.UserRecord
}

func (s *mapStore) FindByID(_ context.Context, id string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return u, nil
}

func (s *mapStore) FindByEmail(_ context.Context, email string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (s *mapStore) FindByResetCode(_ context.Context, code string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if code != "" && u.ResetCode == code {
			return u, nil
		}
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (s *mapStore) FindByTOTPSecret(_ context.Context, secret string) (authgate.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if secret != "" && u.TOTPSecret == secret {
			return u, nil
		}
	}
	return authgate.UserRecord{}, authgate.ErrUserNotFound
}

func (s *mapStore) Create(_ context.Context, user authgate.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return authgate.ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *mapStore) Save(_ context.Context, user authgate.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return authgate.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

type noopMailer struct{}

func (noopMailer) SendResetCode(context.Context, string, string, time.Duration) error { return nil }

func newGuardedEngine(t *testing.T) (*authgate.Engine, *mapStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &mapStore{users: make(map[string]authgate.UserRecord)}

	cfg := authgate.DefaultConfig()
	cfg.Token.SecretKey = bytes.Repeat([]byte{0x11}, 32)
	cfg.Password = password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}

	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithMailer(noopMailer{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, store
}

func signUp(t *testing.T, engine *authgate.Engine, email string) (authgate.UserRecord, string) {
	t.Helper()

	res, err := engine.CreateAccount(context.Background(), authgate.CreateAccountInput{
		Name:       "Guard Test",
		Email:      email,
		Password:   "correct-horse",
		DeviceName: "test-device",
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return *res.User, res.Token
}

func TestIdentityFromHeaderSilentBranches(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	ctx := context.Background()

	headers := []string{
		"",
		"Bearer",
		"Bearer a b",
		"Token sometoken",
		"Bearer ",
		"Bearer null",
		"Bearer definitely-not-ciphertext",
	}
	for _, h := range headers {
		id, err := middleware.IdentityFromHeader(ctx, engine, h)
		if err != nil {
			t.Fatalf("header %q: expected silence, got error %v", h, err)
		}
		if id != nil {
			t.Fatalf("header %q: expected no identity, got %+v", h, id)
		}
	}
}

func TestIdentityFromHeaderResolvesBearer(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	user, tok := signUp(t, engine, "alice@example.com")

	id, err := middleware.IdentityFromHeader(context.Background(), engine, "Bearer "+tok)
	if err != nil {
		t.Fatalf("IdentityFromHeader failed: %v", err)
	}
	if id == nil || id.UserID != user.ID {
		t.Fatalf("unexpected identity: %+v", id)
	}

	// Scheme matching is case-insensitive.
	id, err = middleware.IdentityFromHeader(context.Background(), engine, "bearer "+tok)
	if err != nil || id == nil {
		t.Fatalf("lowercase scheme should resolve, got id=%v err=%v", id, err)
	}
}

func TestIdentityFromHeaderSurfacesRevocation(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	user, tok := signUp(t, engine, "alice@example.com")
	ctx := context.Background()

	if err := engine.SignOut(ctx, user.ID, tok); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	id, err := middleware.IdentityFromHeader(ctx, engine, "Bearer "+tok)
	if err == nil {
		t.Fatal("revoked token must surface an error, not silence")
	}
	if id != nil {
		t.Fatalf("expected nil identity, got %+v", id)
	}
}

func TestGuardStoresIdentity(t *testing.T) {
	engine, _ := newGuardedEngine(t)
	user, tok := signUp(t, engine, "alice@example.com")

	var got *authgate.Identity
	handler := middleware.Guard(engine, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.IdentityFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.UserID != user.ID {
		t.Fatalf("expected identity in context, got %+v", got)
	}
}

func TestGuardRejectsAnonymous(t *testing.T) {
	engine, _ := newGuardedEngine(t)

	handler := middleware.Guard(engine, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardShortLivedGate(t *testing.T) {
	engine, store := newGuardedEngine(t)
	user, _ := signUp(t, engine, "alice@example.com")
	ctx := context.Background()

	// Flip the account to two-factor so SignIn hands back a step-up token.
	store.mu.Lock()
	u := store.users[user.ID]
	u.TOTPSecret = "JBSWY3DPEHPK3PXP"
	u.TOTPEnabled = true
	store.users[user.ID] = u
	store.mu.Unlock()

	res, err := engine.SignIn(ctx, "alice@example.com", "correct-horse", "phone")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !res.TwoFactorRequired {
		t.Fatal("expected step-up token")
	}

	run := func(allowShortLived bool) int {
		handler := middleware.Guard(engine, allowShortLived)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodPost, "/2fa", nil)
		req.Header.Set("Authorization", "Bearer "+res.Token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := run(false); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for step-up token on guarded route, got %d", code)
	}
	if code := run(true); code != http.StatusOK {
		t.Fatalf("expected 200 on the completion route, got %d", code)
	}
}
