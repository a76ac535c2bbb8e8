// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the registered account. It doubles as the stored credential:
// Email is the login identifier and PasswordHash the bcrypt output.
type User struct {
	ID           uuid.UUID // Subject of every token issued for this account.
	Email        string    // Normalised (trimmed, lower-cased) login identifier.
	Username     string    // Display name, optional at registration.
	PasswordHash string    // Self-describing bcrypt hash. Never the plaintext.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// index agree on a single spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultUsername derives a display name from the local part of an email.
func DefaultUsername(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return email
	}

	return local
}
