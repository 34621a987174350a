// Package token seals structured authentication payloads into opaque bearer
// strings with authenticated symmetric encryption (XChaCha20-Poly1305) and
// opens them back, detecting any tampering.
//
// Decode fails closed: undecodable base64, truncated ciphertext, a failed
// authentication tag, and plaintext that does not parse as a payload all
// collapse to [ErrTampered]. Callers never see which stage rejected the
// token.
package token
