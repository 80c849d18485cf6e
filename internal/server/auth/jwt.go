// Package auth holds the credential primitives of the server: password
// policy, bcrypt hashing, progressive lockout and bearer tokens.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload: the registered claims (sub, iat, exp) plus the
// user id and email.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID    string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 bearer tokens signed with a single
// secret. It is safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenService)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for the given user.
func (s *TokenService) Issue(userID, email string) (string, Identity, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Email:  email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", Identity{}, err
	}

	return signed, Identity{UserID: userID, Email: email, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify checks signature, algorithm and expiry. It returns
// common.ErrTokenExpired for an expired token and common.ErrTokenMalformed
// for any other defect.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrTokenMalformed
	}

	if !token.Valid || claims.UserID == "" || claims.Subject != claims.UserID {
		return Identity{}, common.ErrTokenMalformed
	}

	id := Identity{UserID: claims.UserID, Email: claims.Email}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}
