// Package password implements the opaque hash/verify capability on Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns hashing and verification only. It stores nothing,
// imports no other authgate package, and never logs plaintext.
package password
