package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/drumline-app/drumline/internal/domain"
)

// Claims is the JWT claim set issued to API clients. The subject is the user
// id; role and school are set at issuance and verified, never client-editable.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	SchoolID int64  `json:"school_id,omitempty"`
}

// TokenVerifier verifies HMAC-signed bearer tokens into principals.
type TokenVerifier struct {
	secret []byte
	clock  clockwork.Clock
}

// NewTokenVerifier creates a verifier for tokens signed with the given secret.
func NewTokenVerifier(secret string, clock clockwork.Clock) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), clock: clock}
}

// Verify parses and validates a bearer token and returns the principal it
// encodes. Any parse, signature, expiry, or claim error fails verification;
// callers map the failure to an unauthenticated rejection.
func (v *TokenVerifier) Verify(tokenString string) (domain.Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.clock.Now))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return domain.Principal{}, fmt.Errorf("token invalid")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("token subject is not a user id: %w", err)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("token carries %w", err)
	}

	return domain.Principal{
		ID:           userID,
		DeclaredRole: role,
		HomeSchoolID: claims.SchoolID,
	}, nil
}

// Issue signs a token for a principal. Used by the login handler and tests.
func (v *TokenVerifier) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := v.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:     string(p.DeclaredRole),
		SchoolID: p.HomeSchoolID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
