// Package password implements password hashing, verification, and strength
// policy with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// The [Argon2] hasher supports transparent parameter upgrades: if a stored
// hash was produced with weaker parameters, [Argon2.NeedsUpgrade] returns
// true so the caller can re-hash on the next successful verification.
//
// [Policy] validates candidate passwords before they are hashed. It applies
// to new credentials only; stored hashes verify regardless of current policy.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other vigil package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
