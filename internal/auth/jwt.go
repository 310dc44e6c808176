package auth

// The identity travels with each request: login returns an HS256 JWT
// carrying the user's email (subject) and role, and RequireAuth puts the
// decoded Session into the request context. Handlers read it from there
// and pass it down explicitly.

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "postmuse"

// DefaultTokenTTL is how long a login lasts.
const DefaultTokenTTL = 12 * time.Hour

// Session is the authenticated identity attached to a request.
type Session struct {
	Email string
	Role  string
}

// TokenService signs and verifies session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService requires a secret of at least 16 characters.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL reports the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for sess valid for the configured TTL.
func (s *TokenService) Issue(sess Session) (string, error) {
	return s.IssueWithTTL(sess, s.ttl)
}

// IssueWithTTL signs a token with an explicit lifetime. Tests use a negative
// duration to mint already-expired tokens.
func (s *TokenService) IssueWithTTL(sess Session, ttl time.Duration) (string, error) {
	if sess.Email == "" {
		return "", errors.New("auth: session has no email")
	}
	now := time.Now()
	c := claims{
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, algorithm and expiry, and returns
// the session the token carries.
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Session{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Session{}, fmt.Errorf("auth: token has no subject")
	}

	return Session{Email: c.Subject, Role: c.Role}, nil
}
