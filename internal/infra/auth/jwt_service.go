// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"identity/config"
	"identity/internal/domain/service"
	"identity/internal/errors"
)

const defaultTokenTTL = 24 * time.Hour

// clockSkew is tolerated on iat, nbf and exp between instances.
const clockSkew = 30 * time.Second

// signingMethod is fixed. Validate rejects every other alg, "none" included.
var signingMethod = jwt.SigningMethodHS256

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// All fields are read-only after construction.
type jwtService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService. A blank secret is a startup error.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if strings.TrimSpace(cfg.Secret.Key) == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	ttl, issuer := defaultTokenTTL, ""
	if cfg.Token != nil {
		if cfg.Token.TTL > 0 {
			ttl = cfg.Token.TTL
		}
		issuer = cfg.Token.Issuer
	}

	return &jwtService{
		secret: []byte(cfg.Secret.Key),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Issue signs an HS256 token carrying sub, iat, nbf, exp and (optionally) iss.
func (s *jwtService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// Validate checks the token and returns its claims, or an *InvalidTokenError.
func (s *jwtService) Validate(tokenString string) (claims *service.Claims, err error) {
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = &service.InvalidTokenError{Reason: service.ReasonMalformed, Cause: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	registered := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, registered, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok || token.Method.Alg() != signingMethod.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}

		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, &service.InvalidTokenError{Reason: classifyParseError(token, err), Cause: err}
	}
	if !token.Valid {
		return nil, &service.InvalidTokenError{Reason: service.ReasonSignature}
	}
	if registered.Subject == "" {
		return nil, &service.InvalidTokenError{Reason: service.ReasonMissingSubject}
	}

	out := &service.Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		out.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		out.ExpiresAt = registered.ExpiresAt.Time
	}

	return out, nil
}

func classifyParseError(token *jwt.Token, err error) service.InvalidReason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return service.ReasonMalformed
	case token != nil && token.Header["alg"] != signingMethod.Alg():
		return service.ReasonAlgorithm
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return service.ReasonAlgorithm
	case errors.Is(err, jwt.ErrTokenExpired):
		return service.ReasonExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return service.ReasonNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return service.ReasonIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return service.ReasonSignature
	default:
		return service.ReasonMalformed
	}
}
