package service

import (
	"errors"
	"time"
)

// ErrInvalidToken is matched by every error returned from TokenService.Validate.
var ErrInvalidToken = errors.New("invalid token")

// InvalidReason classifies why a token was rejected.
type InvalidReason string

const (
	ReasonMalformed      InvalidReason = "malformed"
	ReasonSignature      InvalidReason = "signature"
	ReasonAlgorithm      InvalidReason = "algorithm"
	ReasonExpired        InvalidReason = "expired"
	ReasonNotYetValid    InvalidReason = "not_yet_valid"
	ReasonMissingSubject InvalidReason = "missing_subject"
	ReasonIssuer         InvalidReason = "issuer"
)

// InvalidTokenError carries the rejection reason. Callers should branch on
// errors.Is(err, ErrInvalidToken) and only use Reason for logging.
type InvalidTokenError struct {
	Reason InvalidReason
	Cause  error
}

func (e *InvalidTokenError) Error() string {
	if e.Cause != nil {
		return "invalid token (" + string(e.Reason) + "): " + e.Cause.Error()
	}

	return "invalid token (" + string(e.Reason) + ")"
}

func (e *InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

func (e *InvalidTokenError) Unwrap() error {
	return e.Cause
}

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and validates signed bearer tokens.
type TokenService interface {
	// Issue signs a token asserting subject.
	Issue(subject string) (string, error)

	// Validate verifies signature, algorithm and expiry and returns the claims.
	// It never panics; every failure matches ErrInvalidToken.
	Validate(token string) (*Claims, error)
}
