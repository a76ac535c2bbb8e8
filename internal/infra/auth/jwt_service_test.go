package auth

import (
	"strings"
	"testing"
	"time"

	"identity/config"
	"identity/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_very_long_for_testing"

func newTestConfig(secret string) *config.Config {
	return &config.Config{
		Secret: config.SecretConfig{Key: secret},
		Token:  &config.TokenConfig{TTL: time.Hour, Issuer: "identity-test"},
	}
}

func newTestJWTService(t *testing.T, secret string) *jwtService {
	t.Helper()

	svc, err := NewJWTService(newTestConfig(secret))
	require.NoError(t, err)

	impl, ok := svc.(*jwtService)
	require.True(t, ok)

	return impl
}

func requireInvalid(t *testing.T, claims *service.Claims, err error, reason service.InvalidReason) {
	t.Helper()

	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidToken))

	var invalid *service.InvalidTokenError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, reason, invalid.Reason)
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService(t, testSecret)
	subject := uuid.NewString()

	token, err := svc.Issue(subject)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestJWTService_TokenCarriesExpectedClaims(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Header["alg"])

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", mapClaims["sub"])
	assert.Equal(t, "identity-test", mapClaims["iss"])
	assert.Contains(t, mapClaims, "iat")
	assert.Contains(t, mapClaims, "exp")
}

func TestJWTService_IssueRejectsEmptySubject(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	token, err := svc.Issue("")
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestJWTService_DifferentSecret(t *testing.T) {
	issuer := newTestJWTService(t, "first_secret_key")
	validator := newTestJWTService(t, "second_secret_key")

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := validator.Validate(token)
	requireInvalid(t, claims, err, service.ReasonSignature)
}

func TestJWTService_MalformedTokens(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	inputs := map[string]string{
		"empty":           "",
		"not a jwt":       "clearly-not-a-jwt-token-format",
		"two segments":    strings.Join(strings.Split(token, ".")[:2], "."),
		"garbage payload": "eyJhbGciOiJIUzI1NiJ9.!!!.sig",
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			claims, err := svc.Validate(input)
			requireInvalid(t, claims, err, service.ReasonMalformed)
		})
	}
}

func TestJWTService_TruncatedToken(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.Validate(token[:len(token)-5])
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrInvalidToken))
}

func TestJWTService_TamperedPayload(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)
	other, err := svc.Issue("user-2")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	claims, err := svc.Validate(forged)
	requireInvalid(t, claims, err, service.ReasonSignature)
}

func TestJWTService_AlgNone(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	claims := jwt.RegisteredClaims{
		Subject:   "attacker",
		Issuer:    "identity-test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	got, err := svc.Validate(token)
	requireInvalid(t, got, err, service.ReasonAlgorithm)
}

func TestJWTService_OtherHMACAlgorithm(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "identity-test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := svc.Validate(token)
	requireInvalid(t, got, err, service.ReasonAlgorithm)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(t, testSecret)
	past := newTestJWTService(t, testSecret)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := past.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	requireInvalid(t, claims, err, service.ReasonExpired)
}

func TestJWTService_ClockSkew(t *testing.T) {
	tests := []struct {
		name  string
		ahead time.Duration
		valid bool
	}{
		{name: "issuer a few seconds ahead", ahead: 5 * time.Second, valid: true},
		{name: "issuer within leeway", ahead: clockSkew - 5*time.Second, valid: true},
		{name: "issuer beyond leeway", ahead: 2 * clockSkew, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestJWTService(t, testSecret)
			ahead := newTestJWTService(t, testSecret)
			ahead.now = func() time.Time { return time.Now().Add(tt.ahead) }

			token, err := ahead.Issue("user-1")
			require.NoError(t, err)

			claims, err := svc.Validate(token)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, "user-1", claims.Subject)

				return
			}
			requireInvalid(t, claims, err, service.ReasonNotYetValid)
		})
	}
}

func TestJWTService_WrongIssuer(t *testing.T) {
	svc := newTestJWTService(t, testSecret)
	foreign := newTestJWTService(t, testSecret)
	foreign.issuer = "someone-else"

	token, err := foreign.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	requireInvalid(t, claims, err, service.ReasonIssuer)
}

func TestJWTService_MissingSubject(t *testing.T) {
	svc := newTestJWTService(t, testSecret)

	claims := jwt.RegisteredClaims{
		Issuer:    "identity-test",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := svc.Validate(token)
	requireInvalid(t, got, err, service.ReasonMissingSubject)
}

func TestJWTService_EmptySecret(t *testing.T) {
	for _, secret := range []string{"", "   "} {
		svc, err := NewJWTService(newTestConfig(secret))
		assert.Error(t, err)
		assert.Nil(t, svc)
		assert.Contains(t, err.Error(), "jwt secret must be provided")
	}
}

func TestJWTService_DefaultTTL(t *testing.T) {
	svc, err := NewJWTService(&config.Config{Secret: config.SecretConfig{Key: testSecret}})
	require.NoError(t, err)

	impl, ok := svc.(*jwtService)
	require.True(t, ok)
	assert.Equal(t, defaultTokenTTL, impl.ttl)
	assert.Empty(t, impl.issuer)
}
