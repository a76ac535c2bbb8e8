// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/rand"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"identity/config"
	"identity/internal/domain/service"
	"identity/internal/errors"
)

// bcrypt ignores input past this many bytes.
const maxBcryptPasswordBytes = 72

var (
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned by Hash when bcrypt would truncate the input.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
// Hash and Verify share a bounded pool so bcrypt work cannot occupy every CPU.
type bcryptHasher struct {
	cost   int
	policy *config.PasswordStrengthConfig
	pool   *semaphore.Weighted

	placeholderOnce sync.Once
	placeholder     []byte
}

// NewBcryptHasher builds the hasher from auth.bcryptCost, auth.hashWorkers and passwordStrength.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost, workers := bcrypt.DefaultCost, 0
	if cfg.Auth != nil {
		cost = cfg.Auth.BcryptCost
		workers = cfg.Auth.HashWorkers
	}

	return newBcryptHasher(cost, workers, cfg.PasswordStrength)
}

// NewBcryptHasherWithCost returns a hasher with the given cost and no password policy.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	return newBcryptHasher(cost, 0, nil)
}

func newBcryptHasher(cost, workers int, policy *config.PasswordStrengthConfig) *bcryptHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	return &bcryptHasher{
		cost:   cost,
		policy: policy,
		pool:   semaphore.NewWeighted(int64(workers)),
	}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// Each call draws a fresh salt, so the same input never hashes to the same string twice.
func (h *bcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxBcryptPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if err := h.pool.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for hash worker")
	}
	defer h.pool.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt generate")
	}

	return string(hashed), nil
}

// Verify compares a plaintext password with a bcrypt hash.
// Mismatch, malformed hash and cancellation are all reported as false.
// An empty hash is compared against a placeholder of the same cost and
// always fails, so callers without a stored hash still pay for one comparison.
func (h *bcryptHasher) Verify(ctx context.Context, password, hash string) bool {
	if password == "" {
		return false
	}

	if err := h.pool.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.pool.Release(1)

	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.placeholderHash(), []byte(password))

		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// placeholderHash is a hash of random bytes at the hasher's cost, built on first use.
func (h *bcryptHasher) placeholderHash() []byte {
	h.placeholderOnce.Do(func() {
		secret := make([]byte, 32)
		_, _ = rand.Read(secret)

		hashed, err := bcrypt.GenerateFromPassword(secret, h.cost)
		if err != nil {
			return
		}
		h.placeholder = hashed
	})

	return h.placeholder
}
