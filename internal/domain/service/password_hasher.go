// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher abstracts the slow, salted one-way hash used for attorney passwords.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a hash in constant time. A malformed
	// hash is reported as a mismatch.
	Check(password, hash string) bool
}

// PasswordVerifier is a PasswordHasher that can also verify against a decoy when no
// stored hash exists, so unknown identities cost the same as wrong passwords.
type PasswordVerifier interface {
	PasswordHasher

	// VerifyOrDecoy always performs exactly one hash comparison. It reports true only
	// when storedHash is non-nil and matches.
	VerifyOrDecoy(password string, storedHash *string) bool
}
