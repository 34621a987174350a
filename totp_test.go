package authgate

import (
	"encoding/base32"
	"testing"
	"time"
)

// RFC 6238 appendix B SHA-1 reference secret.
var rfcSecret = base32.StdEncoding.WithPadding(base32.NoPadding).
	EncodeToString([]byte("12345678901234567890"))

func TestVerifyCodeRFC6238Vectors(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Skew: 0, Issuer: "authgate"})

	cases := []struct {
		unix int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(rfcSecret, tc.code, time.Unix(tc.unix, 0))
		if err != nil {
			t.Fatalf("VerifyCode(t=%d) failed: %v", tc.unix, err)
		}
		if !ok {
			t.Fatalf("expected code %q accepted at t=%d", tc.code, tc.unix)
		}
	}
}

func TestVerifyCodeRejectsWrongCode(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Skew: 1, Issuer: "authgate"})

	ok, err := m.VerifyCode(rfcSecret, "00000000", time.Unix(59, 0))
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if ok {
		t.Fatal("wrong code must be rejected")
	}
}

func TestVerifyCodeSkewWindow(t *testing.T) {
	now := time.Unix(1111111109, 0)

	// Code for the step immediately before now.
	secret, _ := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(rfcSecret)
	counter := now.Unix()/30 - 1
	adjacent := hotpCode(secret, counter, 8)

	strict := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Skew: 0, Issuer: "authgate"})
	if ok, _ := strict.VerifyCode(rfcSecret, adjacent, now); ok {
		t.Fatal("adjacent-step code must fail with zero skew")
	}

	lenient := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Skew: 1, Issuer: "authgate"})
	if ok, _ := lenient.VerifyCode(rfcSecret, adjacent, now); !ok {
		t.Fatal("adjacent-step code must pass with skew 1")
	}
}

func TestVerifyCodeMalformedInput(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 6, Period: 30, Skew: 1, Issuer: "authgate"})
	now := time.Unix(1_700_000_000, 0)

	for _, code := range []string{"", "12345", "1234567", "12a456", "......"} {
		ok, err := m.VerifyCode(rfcSecret, code, now)
		if err != nil {
			t.Fatalf("VerifyCode(%q) errored: %v", code, err)
		}
		if ok {
			t.Fatalf("malformed code %q must be rejected", code)
		}
	}
}

func TestVerifyCodeInvalidSecret(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 6, Period: 30, Skew: 1, Issuer: "authgate"})

	if _, err := m.VerifyCode("not!base32", "123456", time.Unix(59, 0)); err == nil {
		t.Fatal("expected error for undecodable secret")
	}
	if _, err := m.VerifyCode("", "123456", time.Unix(59, 0)); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestVerifyCodeTrimsWhitespace(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Digits: 8, Period: 30, Skew: 0, Issuer: "authgate"})

	ok, err := m.VerifyCode(rfcSecret, " 94287082 ", time.Unix(59, 0))
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if !ok {
		t.Fatal("expected padded code accepted after trimming")
	}
}
