package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drumline-app/drumline/internal/domain"
)

const testSecret = "test-secret-test-secret-test-secret!"

func TestVerify_RoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	verifier := NewTokenVerifier(testSecret, clock)
	principal := domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleTeacher,
		HomeSchoolID: 3,
	}

	token, err := verifier.Issue(principal, time.Hour)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestVerify_ExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	verifier := NewTokenVerifier(testSecret, clock)

	token, err := verifier.Issue(domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleStudent,
		HomeSchoolID: 1,
	}, time.Hour)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := clockwork.NewFakeClock()
	issuer := NewTokenVerifier(testSecret, clock)
	verifier := NewTokenVerifier("another-secret-another-secret-other!", clock)

	token, err := issuer.Issue(domain.Principal{
		ID:           uuid.New(),
		DeclaredRole: domain.RoleAdmin,
	}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsUnsignedToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	verifier := NewTokenVerifier(testSecret, clock)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
		Role: "admin",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = verifier.Verify(unsigned)
	assert.Error(t, err, "alg=none must never verify")
}

func TestVerify_RejectsUnknownRole(t *testing.T) {
	clock := clockwork.NewFakeClock()
	verifier := NewTokenVerifier(testSecret, clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
		Role: "principal",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsNonUUIDSubject(t *testing.T) {
	clock := clockwork.NewFakeClock()
	verifier := NewTokenVerifier(testSecret, clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "not-a-uuid",
			IssuedAt:  jwt.NewNumericDate(clock.Now()),
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
		Role: "teacher",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	verifier := NewTokenVerifier(testSecret, clockwork.NewFakeClock())

	_, err := verifier.Verify("not.a.token")
	assert.Error(t, err)
}
