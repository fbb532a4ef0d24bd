// Package auth issues and checks the bearer tokens of the posts API.
//
// TOKEN FLOW:
//  1. POST /login with a form-encoded password grant
//  2. the dev API verifies the bcrypt hash and signs a JWT carrying user_id and exp
//  3. the web client keeps the token in the user's session and sends it as
//     "Authorization: Bearer <jwt>" on every protected call
//  4. the dev API's RequireAuth middleware verifies the signature and expiry
//     and puts the user id in the request context
//
// The web client never holds the signing secret. It only peeks at the
// unverified claims (Inspect) to know when the token runs out, so an expired
// session can be ended before a request is wasted on it.
//
// PAYLOAD:
//
//	{"user_id": 42, "exp": 1735689600, "iat": 1735686000}
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued access token stays valid.
const DefaultTokenTTL = 60 * time.Minute

var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// claims is the JWT payload. user_id is a custom claim; the registered
// claims only contribute exp and iat.
type claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A ttl of zero means DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of tokens issued by this service.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs a token for userID with the service's TTL.
func (s *TokenService) Generate(userID int) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token that expires after d. A negative d
// yields an already expired token, which the tests rely on.
func (s *TokenService) GenerateWithDuration(userID int, d time.Duration) (string, error) {
	now := s.now()
	c := claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm and expiry and returns the user id.
func (s *TokenService) Validate(tokenStr string) (int, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user_id", ErrTokenInvalid)
	}
	return c.UserID, nil
}

// TokenInfo is what the client can learn from a token without the secret.
type TokenInfo struct {
	UserID    int
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp lies before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes the claims of a JWT WITHOUT verifying its signature.
// Only use the result as a hint; the backend stays the authority.
// Opaque (non-JWT) tokens return ErrTokenInvalid.
func Inspect(tokenStr string) (TokenInfo, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, mc); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var info TokenInfo
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	switch v := mc["user_id"].(type) {
	case float64:
		info.UserID = int(v)
	case string:
		info.UserID, _ = strconv.Atoi(v)
	}
	return info, nil
}
