package token

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrTampered is returned for any token that fails to open and parse.
var ErrTampered = errors.New("token failed authentication")

// ErrKeySize is returned by NewCodec for secrets that are not 32 bytes.
var ErrKeySize = errors.New("token secret must be 32 bytes")

// Payload is the plaintext carried inside an encrypted bearer token.
//
// ShortLived discriminates the step-up token family from standard session
// tokens; only one secret key exists for both. ExpiresAt is an absolute
// epoch-millisecond deadline and is zero on standard tokens, which expire by
// session-list revocation instead.
type Payload struct {
	UserID     string `json:"uid"`
	DeviceName string `json:"dev"`
	ShortLived bool   `json:"slt"`
	ExpiresAt  int64  `json:"exp,omitempty"`
}

// Codec encrypts and decrypts payloads under one process-wide secret.
// It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from a 32-byte secret.
func NewCodec(secret []byte) (*Codec, error) {
	aead, err := chacha20poly1305.NewX(secret)
	if err != nil {
		return nil, ErrKeySize
	}
	return &Codec{aead: aead}, nil
}

// Encode seals the payload into an opaque base64url token. The nonce is
// random, so encoding the same payload twice yields two distinct tokens.
func (c *Codec) Encode(p Payload) (string, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a token produced by Encode. Every rejection path reports
// [ErrTampered].
func (c *Codec) Decode(tok string) (Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return Payload{}, ErrTampered
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return Payload{}, ErrTampered
	}

	nonce, box := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, box, nil)
	if err != nil {
		return Payload{}, ErrTampered
	}

	var p Payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return Payload{}, ErrTampered
	}
	if p.UserID == "" {
		return Payload{}, ErrTampered
	}
	return p, nil
}
