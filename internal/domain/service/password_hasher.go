// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (e.g., bcrypt), keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted, self-describing hash from a non-empty plaintext password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches hash. It never errors: a malformed
	// hash, a mismatch and a cancelled context all yield false. An empty hash
	// costs as much as a real comparison and yields false.
	Verify(ctx context.Context, password, hash string) bool

	// ValidatePasswordStrength checks the password against the configured policy.
	ValidatePasswordStrength(password string) error
}
