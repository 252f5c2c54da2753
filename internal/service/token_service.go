package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pathfinder-edu/pathfinder-api/internal/models"
)

// Issuer embedded in every token; validation rejects tokens from anyone else.
const tokenIssuer = "student-risk-prediction"

// DefaultTokenTTL is the fixed session lifetime applied when configuration
// does not override it.
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues and validates stateless, signed session tokens. Tokens
// are self-contained; there is no server-side revocation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService constructs a TokenService. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Generate produces a signed token embedding the subject id, email, issue
// time and expiry.
func (s *TokenService) Generate(subjectID, email string) (string, error) {
	now := time.Now().UTC()
	claims := &models.SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer and expiry. It returns the embedded
// claims and true on success, and (nil, false) on any failure; validation
// never propagates an error past this boundary.
func (s *TokenService) Validate(raw string) (*models.SessionClaims, bool) {
	token, err := jwt.ParseWithClaims(raw, &models.SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, false
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}
