// ABOUTME: JWT issuance and verification for upstream connector identities
// ABOUTME: HS256 tokens with typed registered claims bound to the relay issuer

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// tokenIssuer identifies tokens minted by this relay. Verification rejects
// tokens issued for anything else, so a secret shared with another service
// cannot be replayed here.
const tokenIssuer = "teams-relay"

// TokenVerifier defines the interface for token verification
type TokenVerifier interface {
	Verify(tokenString string) (connectorID string, err error)
}

// connectorClaims are the claims carried by a connector token. The subject
// holds the connector ID.
type connectorClaims struct {
	jwt.RegisteredClaims
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWT verifier with the given secret
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

// Verify validates the token and extracts the connector ID from the subject
// claim. Only HS256 tokens carrying the relay issuer are accepted.
func (v *JWTVerifier) Verify(tokenString string) (connectorID string, err error) {
	claims := &connectorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)

	if err != nil {
		// Check if it's specifically an expiration error
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return claims.Subject, nil
}

// Generate creates a new connector token with the given expiration
func (v *JWTVerifier) Generate(connectorID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := connectorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   connectorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
