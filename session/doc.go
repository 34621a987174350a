// Package session keeps the per-user registry of active device sessions in
// Redis. Each user id maps to one key holding a JSON array of rows; a row is
// one issued standard token plus its device label and timestamps.
//
// Every mutation is a full-list read-modify-write on that single key. The
// package deliberately does not serialize concurrent writers: two Add calls
// for the same user that interleave can each read the same prior list, and
// the later SET silently discards the earlier row. Validation still holds —
// a token is only valid while its exact value sits in the stored list — but
// a session row can be lost under true concurrency.
package session
