package internal

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"math/big"
	"strings"
)

const totpSecretBytes = 20

// NumericCode returns a crypto-random numeric string of exactly the given
// length. Leading zeros are kept so the length is fixed.
func NumericCode(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// NewTOTPSecret returns a fresh 160-bit shared secret, base32 without
// padding.
func NewTOTPSecret() (string, error) {
	raw := make([]byte, totpSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return enc.EncodeToString(raw), nil
}
